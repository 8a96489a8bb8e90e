package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"snapocr/clipboard"
	"snapocr/config"
	"snapocr/recognize"
)

const maxFileSizeMB = 10

// runFile recognizes an existing image without any UI and prints the
// result. Scripts pipe this; output carries no added newline.
func runFile(cfg *config.Config, f flags) error {
	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	img, err := loadImageFile(f.file)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if d := sessionDeadline(cfg); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	res, err := pipeline.Recognize(ctx, img)
	if err != nil {
		return err
	}

	text := recognize.Format(res)
	if text == "" {
		return errSilent
	}
	if f.clip {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		return clipboard.Write(text)
	}
	fmt.Print(text)
	return nil
}

func loadImageFile(path string) (image.Image, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("input image is empty")
	}
	if len(data) > maxFileSizeMB*1024*1024 {
		return nil, fmt.Errorf("input image exceeds %d MB", maxFileSizeMB)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
