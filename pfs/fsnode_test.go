package pfs

import "testing"

func TestEnumerateTreeOrdering(t *testing.T) {
	root := NewDirectory("root")
	d1 := root.AddDirectory(NewDirectory("d1"))
	d1.AddDirectory(NewDirectory("d2"))
	root.AddFile(NewFileFromBytes("b", []byte("x"), false))
	d1.AddFile(NewFileFromBytes("a", []byte("y"), false))

	dirs, files := enumerateTree(root)

	if len(dirs) != 3 {
		t.Fatalf("got %d dirs, want 3", len(dirs))
	}
	if dirs[0] != root || dirs[1] != d1 {
		t.Fatalf("directories not in pre-order")
	}

	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].path != "/b" || files[1].path != "/d1/a" {
		t.Fatalf("files not path-sorted: %q, %q", files[0].path, files[1].path)
	}
}

func TestValidateTreeRejectsDuplicateNames(t *testing.T) {
	root := NewDirectory("root")
	root.AddFile(NewFileFromBytes("a", nil, false))
	root.AddDirectory(NewDirectory("a"))

	if err := validateTree(root); !IsInvalidTree(err) {
		t.Fatalf("want InvalidTree error, got %v", err)
	}
}

func TestDirentLenMatchesAppendTo(t *testing.T) {
	d := Dirent{Name: "hello", Ino: 3, Kind: DirentFile}
	buf := d.AppendTo(nil)
	if len(buf) != d.Len() {
		t.Fatalf("AppendTo produced %d bytes, Len() says %d", len(buf), d.Len())
	}
}
