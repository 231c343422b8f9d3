// sample.go — Sample files written by `gostamp init`.
package config

// SampleYAML returns a fully commented configuration with the defaults.
func SampleYAML() string {
	return `# gostamp configuration

server:
  addr: ":8080"
  max_upload_mb: 50
  shutdown_timeout: 10s

render:
  scale: 2.0            # raster pixels per PDF point (144 dpi)
  opacity: 0.85         # stamp opacity, on screen and in the export
  blend: multiply       # multiply | normal
  interpolation: bilinear

stamps:
  default_size: 100
  min_size: 50
  max_size: 300
  default_x: 50
  default_y: 50

converter:
  mode: pdf             # pdf: DOCX becomes pages | html: one flattened surface
  backend: office       # office (soffice) | remote (convertd) | builtin (html only)
  soffice: soffice
  remote_url: http://localhost:8000
  timeout: 60s

rasterizer:
  pdftoppm: pdftoppm

flattened:
  width: 1200
  min_height: 600
  padding: 16
  font_size: 16
  background: "#ffffff"
  snapshotter: text     # text | browser (headless Chrome)
  # chrome_url: ws://127.0.0.1:9222/devtools/browser/...

export:
  jpeg_quality: 0       # 0 keeps pages lossless

log:
  level: info
  format: json
`
}

// SampleJob returns a batch job for `gostamp stamp --job`.
func SampleJob() string {
	return `{
  "stamps": [
    { "id": "approved", "path": "approved.png", "size": 120 },
    { "id": "signature", "path": "signature.png", "rotation": 350 }
  ],
  "placements": [
    { "stamp": "approved", "page": 1, "x": 420, "y": 60 },
    { "stamp": "signature", "page": 2, "x": 120, "y": 900, "size": 160 },
    { "stamp": "approved", "page": 2, "x": 400, "y": 880, "rotation": 15 }
  ]
}
`
}
