//go:build js && wasm

// GoStamp WASM — Client-side stamp preview.
// Compiled with: GOOS=js GOARCH=wasm go build -o gostamp.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"sync"
	"syscall/js"

	"github.com/xob0t/GoStamp/pkg/compositor"
	"github.com/xob0t/GoStamp/pkg/stamp"
)

// Decoded stamp images, keyed by library id.
var (
	stampsMu sync.RWMutex
	stamps   = make(map[string]image.Image)
)

func main() {
	fmt.Println("GoStamp WASM loaded")

	js.Global().Set("goRegisterStamp", js.FuncOf(registerStamp))
	js.Global().Set("goRemoveStamp", js.FuncOf(removeStamp))
	js.Global().Set("goComposite", js.FuncOf(composite))
	js.Global().Set("goReady", js.ValueOf(true))

	select {}
}

// goRegisterStamp(id, base64Data, mime) — decode a stamp image into Go memory.
func registerStamp(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: need id, base64Data, mime")
	}
	id := args[0].String()
	if !stamp.IsImageType(args[2].String()) {
		return js.ValueOf("ignored")
	}

	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	img, err := stamp.DecodeImage(data)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	stampsMu.Lock()
	stamps[id] = img
	stampsMu.Unlock()
	return js.ValueOf("ok")
}

// goRemoveStamp(id)
func removeStamp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	stampsMu.Lock()
	delete(stamps, args[0].String())
	stampsMu.Unlock()
	return js.ValueOf("ok")
}

// goComposite(pageBase64PNG, placementsJSON, optionsJSON) — flatten the
// placements onto the page and return a base64 PNG. Placements whose stamp
// is not registered are skipped.
func composite(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need pageBase64PNG, placementsJSON")
	}

	pageData, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	page, err := png.Decode(bytes.NewReader(pageData))
	if err != nil {
		return js.ValueOf("error: decode page: " + err.Error())
	}

	var placements []stamp.Placement
	if err := json.Unmarshal([]byte(args[1].String()), &placements); err != nil {
		return js.ValueOf("error: parse placements: " + err.Error())
	}

	var opts compositor.Options
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		if err := json.Unmarshal([]byte(args[2].String()), &opts); err != nil {
			return js.ValueOf("error: parse options: " + err.Error())
		}
	}

	stampsMu.RLock()
	layers := make([]compositor.Layer, 0, len(placements))
	for _, p := range placements {
		img, ok := stamps[p.LibraryID]
		if !ok {
			continue
		}
		layers = append(layers, compositor.Layer{
			Image:    img,
			X:        p.X,
			Y:        p.Y,
			Size:     p.Size,
			Rotation: p.Rotation,
		})
	}
	stampsMu.RUnlock()

	out := compositor.New(opts).Composite(page, layers)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return js.ValueOf("error: encode: " + err.Error())
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}
