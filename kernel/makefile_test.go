package kernel

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestReadMakefile_FoldsContinuations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Makefile", "obj-$(CONFIG_FOO) += \\\n\tfoo.o \\\n\tbar.o\nobj-y += baz.o\n")

	lines, err := ReadMakefile(path)
	if err != nil {
		t.Fatalf("ReadMakefile: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 folded lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "obj-$(CONFIG_FOO) += foo.o bar.o" {
		t.Errorf("unexpected folded line: %q", lines[0])
	}
	if lines[1] != "obj-y += baz.o" {
		t.Errorf("unexpected line: %q", lines[1])
	}
}

func TestReadMakefile_MissingFileIsEmptyNotError(t *testing.T) {
	lines, err := ReadMakefile(filepath.Join(t.TempDir(), "nope", "Makefile"))
	if err != nil {
		t.Fatalf("expected no error for missing makefile, got %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty sequence, got %v", lines)
	}
}

func TestReadMakefile_CollapsesWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Makefile", "obj-y   +=    foo.o\n\n\n")
	lines, err := ReadMakefile(path)
	if err != nil {
		t.Fatalf("ReadMakefile: %v", err)
	}
	if len(lines) != 1 || lines[0] != "obj-y += foo.o" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestScan_R1_PlainObjRule(t *testing.T) {
	lines := []string{"obj-$(CONFIG_FOO) += foo.o"}
	symbols, containers := Scan(lines, "foo.o", "")
	if _, ok := symbols["CONFIG_FOO"]; !ok {
		t.Errorf("expected CONFIG_FOO in symbols, got %v", symbols)
	}
	if len(containers) != 0 {
		t.Errorf("expected no containers, got %v", containers)
	}
}

func TestScan_R3_CompositeObject(t *testing.T) {
	lines := []string{
		"obj-$(CONFIG_X) += xdrv.o",
		"xdrv-objs := a.o b.o",
	}
	symbols, containers := Scan(lines, "a.o", "")
	if len(symbols) != 0 {
		t.Errorf("expected no direct symbols for a.o, got %v", symbols)
	}
	if _, ok := containers["xdrv.o"]; !ok {
		t.Errorf("expected xdrv.o container, got %v", containers)
	}
}

func TestScan_R2_ConditionalContainer(t *testing.T) {
	lines := []string{"xdrv-$(CONFIG_X) += xdrv.o"}
	symbols, containers := Scan(lines, "xdrv.o", "")
	if _, ok := symbols["CONFIG_X"]; !ok {
		t.Errorf("expected CONFIG_X, got %v", symbols)
	}
	if _, ok := containers["xdrv.o"]; !ok {
		t.Errorf("expected xdrv.o container, got %v", containers)
	}
}

func TestScan_R4_CompositeWithConfig(t *testing.T) {
	lines := []string{"xdrv-objs-$(CONFIG_BAZ) += a.o"}
	symbols, containers := Scan(lines, "a.o", "")
	if _, ok := symbols["CONFIG_BAZ"]; !ok {
		t.Errorf("expected CONFIG_BAZ, got %v", symbols)
	}
	if _, ok := containers["xdrv.o"]; !ok {
		t.Errorf("expected xdrv.o container, got %v", containers)
	}
}

func TestScan_R5_DirectoryGate(t *testing.T) {
	lines := []string{"obj-$(CONFIG_P) += sub/"}
	symbols, _ := Scan(lines, "m.o", "sub")
	if _, ok := symbols["CONFIG_P"]; !ok {
		t.Errorf("expected CONFIG_P via directory gate, got %v", symbols)
	}
}

func TestScan_EarlyOutOnAbsentTarget(t *testing.T) {
	lines := []string{"obj-$(CONFIG_OTHER) += other.o"}
	symbols, containers := Scan(lines, "nonexistent.o", "")
	if len(symbols) != 0 || len(containers) != 0 {
		t.Errorf("expected empty result for absent target, got %v %v", symbols, containers)
	}
}

func TestScan_WordBoundary(t *testing.T) {
	// "xfoo.o" must not match a search for "foo.o".
	lines := []string{"obj-$(CONFIG_X) += xfoo.o"}
	symbols, _ := Scan(lines, "foo.o", "")
	if len(symbols) != 0 {
		t.Errorf("expected no match due to word boundary, got %v", symbols)
	}
}
