// Package data loads fixture data files in JSON or YAML format.
//
// A data file can declare a top-level "constants" object and a "parameters"
// list; references like "<name>" in the rest of the file are replaced with
// the corresponding values, and a parameterized file expands into one result
// per parameter permutation. This lets one file describe a whole family of
// fixture configurations.
package data

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// SourceInfo represents JSON or YAML data that was read from a file, after
// post-processing to expand constants and parameters. For non-parameterized
// files, you will get one SourceInfo per file. For parameterized files, there
// can be many instances per file, each with its own version of Data.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   substitutionSet
	Data     []byte
}

// ParseInto unmarshals the post-processed data into target, which follows
// the same rules as json.Unmarshal.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString describes the parameter values this SourceInfo was expanded
// with, for use in test names and failure messages.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	ps := ""
	for k, v := range s.Params {
		if ps != "" {
			ps += ","
		}
		ps += k + "=" + paramValueString(v)
	}
	return "(" + ps + ")"
}

// LoadDataFile reads one data file from the given filesystem and performs any
// necessary constant/parameter substitutions. It can return more than one
// SourceInfo because any file can be parameterized.
func LoadDataFile(fsys fs.FS, path string) ([]SourceInfo, error) {
	ret := make([]SourceInfo, 0, 10) // preallocate a little because it's likely there will be multiple results
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	baseName := filepath.Base(path)
	sources, err := expandSubstitutions(data)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	for _, source := range sources {
		source.FilePath = path
		source.BaseName = baseName
		ret = append(ret, source)
	}
	return ret, nil
}

// LoadAllDataFiles reads every file in a directory of the given filesystem
// and performs any necessary constant/parameter substitutions. It can return
// more than one SourceInfo per file, because any file can be parameterized.
func LoadAllDataFiles(fsys fs.FS, path string) ([]SourceInfo, error) {
	files, err := fs.ReadDir(fsys, path)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		filePath := path + "/" + file.Name()
		sources, err := LoadDataFile(fsys, filePath)
		if err != nil {
			return nil, err
		}
		ret = append(ret, sources...)
	}
	return ret, nil
}
