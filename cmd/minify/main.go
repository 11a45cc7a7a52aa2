// Command minify builds the production asset tree (dist/) or minifies a
// single file.
//
//	go run ./cmd/minify -dist
//	go run ./cmd/minify -input=static/css/style.css -output=dist/static/css/style.css -type=css
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var mediaTypes = map[string]string{
	"css":  "text/css",
	"js":   "application/javascript",
	"html": "text/html",
}

func main() {
	var (
		dist       = flag.Bool("dist", false, "Minify templates/ and static/ into dist/")
		inputFile  = flag.String("input", "", "Input file path")
		outputFile = flag.String("output", "", "Output file path")
		fileType   = flag.String("type", "", "File type (css, js, or html)")
	)
	flag.Parse()

	m := newMinifier()

	if *dist {
		for _, dir := range []string{"templates", "static"} {
			if err := minifyTree(m, dir, filepath.Join("dist", dir)); err != nil {
				log.Fatalf("Failed to minify %s: %v", dir, err)
			}
		}
		fmt.Println("Minified assets are in the 'dist' directory")
		return
	}

	if *inputFile == "" || *outputFile == "" || *fileType == "" {
		log.Fatal("Usage: go run ./cmd/minify -dist | -input=<file> -output=<file> -type=<css|js|html>")
	}
	mediaType, ok := mediaTypes[strings.ToLower(*fileType)]
	if !ok {
		log.Fatalf("Unsupported file type: %s (supported: css, js, html)", *fileType)
	}
	if _, err := minifyFile(m, *inputFile, *outputFile, mediaType); err != nil {
		log.Fatalf("Failed to minify %s: %v", *inputFile, err)
	}
	fmt.Printf("Successfully minified %s -> %s\n", *inputFile, *outputFile)
}

// newMinifier returns a minifier that leaves Go template actions intact.
func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		TemplateDelims:   [2]string{"{{", "}}"},
	})
	m.AddFunc("application/javascript", js.Minify)
	return m
}

// minifyTree minifies every .html, .css and .js file under src into the
// same relative path under dst. Other files are copied unchanged.
func minifyTree(m *minify.M, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		mediaType, ok := mediaTypes[strings.TrimPrefix(filepath.Ext(path), ".")]
		if !ok {
			return copyFile(path, out)
		}
		stats, err := minifyFile(m, path, out, mediaType)
		if err != nil {
			return err
		}
		fmt.Println(stats)
		return nil
	})
}

// minifyFile writes the minified form of srcPath to dstPath and returns a
// one-line size report.
func minifyFile(m *minify.M, srcPath, dstPath, mediaType string) (string, error) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return "", err
	}
	minified, err := m.Bytes(mediaType, src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dstPath, minified, 0644); err != nil {
		return "", err
	}

	ratio := 0.0
	if len(src) > 0 {
		ratio = float64(len(src)-len(minified)) / float64(len(src)) * 100
	}
	return fmt.Sprintf("%s: %d bytes -> %d bytes (%.1f%% reduction)", srcPath, len(src), len(minified), ratio), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
