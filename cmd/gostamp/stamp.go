// stamp.go — Batch mode: load a document, place stamps, export one file.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xob0t/GoStamp/pkg/config"
	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/session"
	"github.com/xob0t/GoStamp/pkg/stamp"
)

func runStamp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stamp", flag.ExitOnError)

	var (
		configPath string
		docPath    string
		jobPath    string
		stampPath  string
		output     string
		mode       string
		single     config.JobPlacement
		size, rot  float64
	)
	fs.StringVar(&configPath, "config", "", "Path to gostamp.yaml (optional)")
	fs.StringVar(&docPath, "doc", "", "Input document (.pdf or .docx)")
	fs.StringVar(&jobPath, "job", "", "Job JSON with stamps and placements")
	fs.StringVar(&stampPath, "stamp", "", "Single stamp image")
	fs.IntVar(&single.Page, "page", 1, "Page for --stamp")
	fs.Float64Var(&single.X, "x", 50, "Top-left x in page pixels")
	fs.Float64Var(&single.Y, "y", 50, "Top-left y in page pixels")
	fs.Float64Var(&size, "size", 0, "Stamp edge length in page pixels")
	fs.Float64Var(&rot, "rotation", 0, "Clockwise rotation in degrees")
	fs.StringVar(&mode, "mode", "", "DOCX handling: pdf or html")
	fs.StringVar(&output, "o", "", "Output file (.pdf, .png, .bmp or .zip)")
	fs.StringVar(&output, "output", "", "Output file (.pdf, .png, .bmp or .zip)")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case docPath == "":
		return fmt.Errorf("input document is required (--doc)")
	case output == "":
		return fmt.Errorf("output file is required (-o)")
	case jobPath == "" && stampPath == "":
		return fmt.Errorf("nothing to place: use --job or --stamp")
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if mode != "" {
		cfg.Converter.Mode = mode
		if mode == "html" && cfg.Converter.Backend == "office" {
			cfg.Converter.Backend = "builtin"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	enc, err := encoder.ForExtension(filepath.Ext(output), cfg.Export)
	if err != nil {
		return err
	}
	log := cfg.Logger(os.Stderr)

	var job *config.Job
	if jobPath != "" {
		if job, err = config.LoadJob(jobPath); err != nil {
			return err
		}
	} else {
		job = &config.Job{Stamps: []config.JobStamp{{ID: "stamp", Path: stampPath}}}
		single.Stamp = "stamp"
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "size":
				single.Size = &size
			case "rotation":
				single.Rotation = &rot
			}
		})
		job.Placements = []config.JobPlacement{single}
	}
	for _, w := range job.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	sc, closeSnap, err := collaborators(cfg, log)
	if err != nil {
		return err
	}
	defer closeSnap()
	sess := session.New(sc)

	data, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	fmt.Printf("Loading: %s\n", docPath)
	if err := sess.LoadDocument(ctx, filepath.Base(docPath), data); err != nil {
		return err
	}

	placed, err := applyJob(sess, job, log)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	res, err := sess.Export(ctx, enc, &buf)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Printf("Done: %s (%d pages, %d stamps placed, %d skipped, %s)\n",
		output, res.Pages, placed, res.Skipped, res.Took.Round(time.Millisecond))
	return nil
}

// applyJob uploads the job's stamps and places them. Entries that reference
// unknown stamps or unreadable images are skipped with a warning; on
// flattened documents every placement goes onto the single surface.
func applyJob(sess *session.Session, job *config.Job, log *slog.Logger) (int, error) {
	assets := make(map[string]string, len(job.Stamps))
	for _, js := range job.Stamps {
		if js.ID == "" || js.Path == "" {
			continue
		}
		data, err := os.ReadFile(js.Path)
		if err != nil {
			return 0, fmt.Errorf("stamp %q: %w", js.ID, err)
		}
		a, ok := sess.UploadStamp(filepath.Base(js.Path), imageType(js.Path), data)
		if !ok {
			log.Warn("stamp is not an image, skipped", "stamp", js.ID, "path", js.Path)
			continue
		}
		if js.Size != nil || js.Rotation != nil {
			a, _ = sess.UpdateStamp(a.ID, stamp.AssetUpdate{Size: js.Size, Rotation: js.Rotation})
		}
		assets[js.ID] = a.ID
	}

	flattened := sess.Info().Flattened
	placed := 0
	for _, jp := range job.Placements {
		id, ok := assets[jp.Stamp]
		if !ok {
			continue
		}
		page := jp.Page
		if flattened {
			page = stamp.FlattenedPage
		}
		p, ok := sess.AddToPage(id, page)
		if !ok {
			continue
		}
		if _, err := sess.MovePlacement(p.ID, jp.X, jp.Y); err != nil {
			return placed, err
		}
		if jp.Size != nil {
			if _, err := sess.ResizePlacement(p.ID, *jp.Size); err != nil {
				return placed, err
			}
		}
		if jp.Rotation != nil {
			if _, err := sess.RotatePlacement(p.ID, *jp.Rotation); err != nil {
				return placed, err
			}
		}
		placed++
	}
	return placed, nil
}

// imageType guesses a stamp's content type from its extension, the way a
// browser file picker does.
func imageType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return "application/octet-stream"
}
