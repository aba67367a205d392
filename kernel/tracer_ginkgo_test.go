package kernel_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/brel-ge/kcfg-vex/kernel"
)

func mustMkdirAll(path string) {
	Expect(os.MkdirAll(path, 0755)).To(Succeed())
}

func mustWrite(path, content string) {
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Tracer", func() {
	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
	})

	Describe("S1 plain obj rule", func() {
		It("discovers the gating symbol", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "net"))
			mustWrite(filepath.Join(root, "drivers", "net", "foo.c"), "/* foo */\n")
			mustWrite(filepath.Join(root, "drivers", "net", "Makefile"), "obj-$(CONFIG_FOO) += foo.o\n")

			result := kernel.Trace("drivers/net/foo.c", root)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Symbols).To(ContainElement("CONFIG_FOO"))
			Expect(result.Objects).To(ContainElement("foo.o"))
		})
	})

	Describe("S2 composite object", func() {
		It("discovers the container and its gating symbol, with container provenance", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "x"))
			mustWrite(filepath.Join(root, "drivers", "x", "a.c"), "/* a */\n")
			mustWrite(filepath.Join(root, "drivers", "x", "Makefile"),
				"obj-$(CONFIG_X) += xdrv.o\nxdrv-objs := a.o b.o\n")

			result := kernel.Trace("drivers/x/a.c", root)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Symbols).To(ContainElement("CONFIG_X"))
			Expect(result.Objects).To(ContainElements("a.o", "xdrv.o"))

			foundContainerEdge := false
			for _, e := range result.Edges {
				if e.Via == "container includes target" {
					foundContainerEdge = true
				}
			}
			Expect(foundContainerEdge).To(BeTrue())
		})
	})

	Describe("S3 directory gate", func() {
		It("discovers the parent directory's gating symbol", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "sub"))
			mustWrite(filepath.Join(root, "drivers", "Makefile"), "obj-$(CONFIG_P) += sub/\n")
			mustWrite(filepath.Join(root, "drivers", "sub", "Makefile"), "obj-y += m.o\n")
			mustWrite(filepath.Join(root, "drivers", "sub", "m.c"), "/* m */\n")

			result := kernel.Trace("drivers/sub/m.c", root)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Symbols).To(ContainElement("CONFIG_P"))
		})
	})

	Describe("S4 missing file", func() {
		It("reports an error and empty collections", func() {
			result := kernel.Trace("nonexistent/x.c", root)
			Expect(result.Error).NotTo(BeEmpty())
			Expect(result.Objects).To(BeEmpty())
			Expect(result.Symbols).To(BeEmpty())
			Expect(result.Edges).To(BeEmpty())
		})
	})

	Describe("S3 directory gate with a relative source root", func() {
		It("still discovers the parent directory's gating symbol", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "sub"))
			mustWrite(filepath.Join(root, "drivers", "Makefile"), "obj-$(CONFIG_P) += sub/\n")
			mustWrite(filepath.Join(root, "drivers", "sub", "Makefile"), "obj-y += m.o\n")
			mustWrite(filepath.Join(root, "drivers", "sub", "m.c"), "/* m */\n")

			cwd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(filepath.Dir(root))).To(Succeed())
			defer func() { Expect(os.Chdir(cwd)).To(Succeed()) }()

			relRoot := filepath.Base(root)
			result := kernel.Trace("drivers/sub/m.c", relRoot)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Symbols).To(ContainElement("CONFIG_P"))
		})
	})

	Describe("idempotence", func() {
		It("produces equal symbol and object sets across repeated traces", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "net"))
			mustWrite(filepath.Join(root, "drivers", "net", "foo.c"), "/* foo */\n")
			mustWrite(filepath.Join(root, "drivers", "net", "Makefile"), "obj-$(CONFIG_FOO) += foo.o\n")

			r1 := kernel.Trace("drivers/net/foo.c", root)
			r2 := kernel.Trace("drivers/net/foo.c", root)
			Expect(r1.Symbols).To(Equal(r2.Symbols))
			Expect(r1.Objects).To(Equal(r2.Objects))
		})
	})

	Describe("ancestor monotonicity", func() {
		It("does not lose symbols when an unrelated Makefile is added to a descendant", func() {
			mustMkdirAll(filepath.Join(root, "drivers", "net"))
			mustWrite(filepath.Join(root, "drivers", "net", "foo.c"), "/* foo */\n")
			mustWrite(filepath.Join(root, "drivers", "net", "Makefile"), "obj-$(CONFIG_FOO) += foo.o\n")

			before := kernel.Trace("drivers/net/foo.c", root)

			mustMkdirAll(filepath.Join(root, "drivers", "net", "unrelated"))
			mustWrite(filepath.Join(root, "drivers", "net", "unrelated", "Makefile"), "obj-y += other.o\n")

			after := kernel.Trace("drivers/net/foo.c", root)
			Expect(after.Symbols).To(ContainElements(before.Symbols))
		})
	})
})
