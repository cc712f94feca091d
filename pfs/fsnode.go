package pfs

import (
	"io"
	"os"
	"sort"
)

// DirentKind identifies what a Dirent points at.
type DirentKind uint8

const (
	DirentCurrent DirentKind = iota // "."
	DirentParent                    // ".."
	DirentFile
	DirentDirectory
)

// ContentProducer streams a file's raw, uncompressed-on-the-wire bytes into
// w. It is invoked synchronously by the writer and may read from the host
// filesystem.
type ContentProducer func(w io.Writer) error

// Directory is a directory node in the in-memory filesystem tree.
type Directory struct {
	Name   string
	Parent *Directory // non-owning; nil for the tree root

	Dirs  []*Directory
	Files []*File

	Dirents []Dirent

	ino *inodeHandle
}

// File is a file node in the in-memory filesystem tree.
type File struct {
	Name   string
	Parent *Directory

	Size           uint64
	CompressedSize uint64 // 0 means "same as Size"
	Compress       bool
	Producer       ContentProducer

	ino *inodeHandle
}

// NewDirectory creates a detached directory node. Attach it to a parent with
// AddDirectory.
func NewDirectory(name string) *Directory {
	return &Directory{Name: name}
}

// AddDirectory attaches a child directory.
func (d *Directory) AddDirectory(child *Directory) *Directory {
	child.Parent = d
	d.Dirs = append(d.Dirs, child)
	return child
}

// AddFile attaches a child file.
func (d *Directory) AddFile(child *File) *File {
	child.Parent = d
	d.Files = append(d.Files, child)
	return child
}

// NewFileFromBytes builds a File whose content producer streams a fixed byte
// slice.
func NewFileFromBytes(name string, data []byte, compress bool) *File {
	return &File{
		Name:     name,
		Size:     uint64(len(data)),
		Compress: compress,
		Producer: func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		},
	}
}

// NewFileFromOSPath builds a File whose content producer streams the named
// host file.
func NewFileFromOSPath(name, path string, compress bool) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, newBuildError(IoFailure, "NewFileFromOSPath", err)
	}
	return &File{
		Name:     name,
		Size:     uint64(info.Size()),
		Compress: compress,
		Producer: func(w io.Writer) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(w, f)
			return err
		},
	}, nil
}

// nodePath returns the full slash-separated path of the node called name
// under parent, rooted at uroot (exclusive
// of the uroot name itself, matching the flat path table's convention of a
// bare "/" for the root).
func nodePath(parent *Directory, name string) string {
	if parent == nil {
		return "/" + name
	}
	if parent.Parent == nil {
		return "/" + name
	}
	return nodePath(parent.Parent, parent.Name) + "/" + name
}

// validateTree walks the tree checking for duplicate names within a
// directory, and for a directory reached a second time (a cycle, or one
// directory attached under two parents).
func validateTree(root *Directory) error {
	seen := map[*Directory]bool{}
	var walk func(d *Directory) error
	walk = func(d *Directory) error {
		if seen[d] {
			return newBuildError(InvalidTree, "validateTree", errCycle)
		}
		seen[d] = true
		names := map[string]bool{}
		for _, c := range d.Dirs {
			if names[c.Name] {
				return newBuildError(InvalidTree, "validateTree", errDuplicateName)
			}
			names[c.Name] = true
		}
		for _, f := range d.Files {
			if names[f.Name] {
				return newBuildError(InvalidTree, "validateTree", errDuplicateName)
			}
			names[f.Name] = true
		}
		for _, c := range d.Dirs {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// enumeratedFile pairs a File with its full path, used to produce the
// path-sorted, deterministic file ordering spec.md §4.1 requires.
type enumeratedFile struct {
	path string
	file *File
}

// enumerateTree returns every directory in stable pre-order and every file
// sorted by full path.
func enumerateTree(root *Directory) (dirs []*Directory, files []enumeratedFile) {
	var walkDirs func(d *Directory)
	walkDirs = func(d *Directory) {
		dirs = append(dirs, d)
		for _, c := range d.Dirs {
			walkDirs(c)
		}
	}
	walkDirs(root)

	var walkFiles func(d *Directory, prefix string)
	walkFiles = func(d *Directory, prefix string) {
		for _, f := range d.Files {
			files = append(files, enumeratedFile{path: prefix + "/" + f.Name, file: f})
		}
		for _, c := range d.Dirs {
			walkFiles(c, prefix+"/"+c.Name)
		}
	}
	walkFiles(root, "")

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return dirs, files
}
