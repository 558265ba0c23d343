package expense

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		baseDir string
		store   *LocalStorage
	)

	BeforeEach(func() {
		baseDir = filepath.Join(GinkgoT().TempDir(), "images")
		var err error
		store, err = NewLocalStorage(baseDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the image directory", func() {
		Expect(baseDir).To(BeADirectory())
	})

	Describe("Save", func() {
		var (
			name      string
			savedPath string
			err       error
		)

		JustBeforeEach(func() {
			savedPath, err = store.Save(name, []byte("jpeg bytes"))
		})

		When("the name is a plain file name", func() {
			BeforeEach(func() {
				name = "abc_receipt.jpg"
			})

			It("returns a path Get can read back", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal("abc_receipt.jpg"))

				data, getErr := store.Get(savedPath)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("jpeg bytes")))
			})
		})

		When("the name tries to climb out of the directory", func() {
			BeforeEach(func() {
				name = "../../etc/receipt.jpg"
			})

			It("writes inside the image directory only", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal("receipt.jpg"))
				Expect(filepath.Join(baseDir, "receipt.jpg")).To(BeAnExistingFile())
				Expect(filepath.Join(baseDir, "..", "..", "etc", "receipt.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("the file is missing", func() {
			It("returns ErrNotFound", func() {
				_, err := store.Get("missing.jpg")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the path points outside the directory", func() {
			BeforeEach(func() {
				outside := filepath.Join(filepath.Dir(baseDir), "secret.txt")
				Expect(os.WriteFile(outside, []byte("secret"), 0644)).To(Succeed())
			})

			It("does not read it", func() {
				_, err := store.Get("../secret.txt")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := store.Save("gone.jpg", []byte("x"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it", func() {
				Expect(store.Delete("gone.jpg")).To(Succeed())
				_, err := store.Get("gone.jpg")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the path points outside the directory", func() {
			var outside string

			BeforeEach(func() {
				outside = filepath.Join(filepath.Dir(baseDir), "keep.txt")
				Expect(os.WriteFile(outside, []byte("keep"), 0644)).To(Succeed())
			})

			It("leaves the outside file alone", func() {
				Expect(store.Delete("../keep.txt")).NotTo(Succeed())
				Expect(outside).To(BeAnExistingFile())
			})
		})
	})

	Describe("NewLocalStorage", func() {
		When("the path is an existing file", func() {
			It("returns an error", func() {
				file := filepath.Join(GinkgoT().TempDir(), "not-a-dir")
				Expect(os.WriteFile(file, nil, 0644)).To(Succeed())

				_, err := NewLocalStorage(file)
				Expect(err).To(MatchError(ContainSubstring("creating storage directory")))
			})
		})
	})
})
