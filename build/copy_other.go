//go:build !darwin

package build

func localCopy(src, target string) error {
	return copyFile(src, target)
}
