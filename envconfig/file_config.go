package envconfig

import (
	"os"

	"github.com/BurntSushi/toml"
)

// File represents the TOML configuration structure. Every key is optional.
type File struct {
	Debug int `toml:"debug"`

	Paths struct {
		Root      string `toml:"root"`
		BuildDir  string `toml:"build_dir"`
		Header    string `toml:"header"`
		Constants string `toml:"constants"`
	} `toml:"paths"`

	Library struct {
		Name     string  `toml:"name"`
		Suffix32 *string `toml:"suffix_32"`
		Suffix64 *string `toml:"suffix_64"`
	} `toml:"library"`

	Binding struct {
		Output  string `toml:"output"`
		Package string `toml:"package"`
	} `toml:"binding"`
}

// ReadFile decodes the TOML file at path. The error from os.Open is returned
// unchanged so callers can test it with os.IsNotExist.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if _, err := toml.Decode(string(b), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) apply() {
	if f.Debug > 0 {
		Debug = f.Debug
	}

	for dst, v := range map[*string]string{
		&Root:      f.Paths.Root,
		&BuildDir:  f.Paths.BuildDir,
		&Header:    f.Paths.Header,
		&Constants: f.Paths.Constants,
		&Library:   f.Library.Name,
		&Output:    f.Binding.Output,
		&Package:   f.Binding.Package,
	} {
		if v != "" {
			*dst = v
		}
	}

	if f.Library.Suffix32 != nil {
		LibSuffix32 = *f.Library.Suffix32
	}
	if f.Library.Suffix64 != nil {
		LibSuffix64 = *f.Library.Suffix64
	}
}
