package lib_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/slok/imgconv/pkg/lib"
)

// This example shows how to convert a batch of real images to JPEG.
func Example_convert() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "imgconv-example-convert-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	// Prepare two input images.
	var files []string
	for _, name := range []string{"a.png", "b.png"} {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		img.Set(0, 0, color.NRGBA{R: 255, A: 128})
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			panic(err)
		}
		if err := png.Encode(f, img); err != nil {
			panic(err)
		}
		f.Close()
		files = append(files, path)
	}

	client, err := lib.New(ctx, lib.Config{DBPath: filepath.Join(dir, "history.db")})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	run, err := client.Convert(ctx, lib.ConvertOpts{
		Files:     files,
		Format:    lib.FormatJPG,
		OutputDir: filepath.Join(dir, "output"),
		OnProgress: func(p lib.Progress) {
			fmt.Printf("%d/%d %s\n", p.Processed, p.Total, p.FileName)
		},
	})
	if err != nil {
		panic(err)
	}

	for _, o := range run.Outcomes {
		fmt.Println(filepath.Base(o.OutputPath))
	}
	fmt.Println(run.State)

	// Output:
	// 1/2 a.png
	// 2/2 b.png
	// a.jpg
	// b.jpg
	// completed
}

// This example shows how to check SDK errors.
func Example_errors() {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{NoHistory: true, Codec: lib.CodecFake})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	_, err = client.Convert(ctx, lib.ConvertOpts{Files: []string{"missing.png"}, Format: lib.FormatPNG})
	fmt.Println(errors.Is(err, lib.ErrNotValid))

	_, err = client.GetRun(ctx, "latest")
	fmt.Println(errors.Is(err, lib.ErrNotFound))

	// Output:
	// true
	// true
}
