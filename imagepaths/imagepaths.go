// Package imagepaths turns command line arguments into the list of image
// files to tag.
package imagepaths

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions of the formats exifgps can write.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Expand keeps file arguments as given and replaces each directory with its
// visible regular files, sorted by name. Subdirectories are not descended.
func Expand(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				out = append(out, arg)
			}
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", arg, err)
		}
		var names []string
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, filepath.Join(arg, name))
		}
	}
	return out, nil
}

// ExpandImages is Expand, except that directories only contribute files with
// an image extension.
func ExpandImages(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		paths, err := Expand([]string{arg})
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if info.IsDir() {
			paths = FilterImages(paths)
		}
		out = append(out, paths...)
	}
	return out, nil
}

func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// FilterImages keeps paths with a known image extension, in order.
func FilterImages(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if IsImage(p) {
			out = append(out, p)
		}
	}
	return out
}
