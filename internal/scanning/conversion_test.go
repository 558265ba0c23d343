package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func noiseImage(width, height int) image.Image {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("prepareImageData", func() {
	var (
		input       []byte
		contentType string
		maxBytes    int
		output      []byte
		mimeType    string
	)

	JustBeforeEach(func() {
		output, mimeType = prepareImageData(input, contentType, maxBytes)
	})

	When("the image is a small PNG", func() {
		BeforeEach(func() {
			input = encodePNG(noiseImage(32, 32))
			contentType = "image/png"
			maxBytes = 0
		})

		It("re-encodes it as JPEG", func() {
			Expect(mimeType).To(Equal("image/jpeg"))
			_, err := jpeg.Decode(bytes.NewReader(output))
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the dimensions", func() {
			img, err := jpeg.Decode(bytes.NewReader(output))
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(32))
			Expect(img.Bounds().Dy()).To(Equal(32))
		})
	})

	When("the image is larger than the limit", func() {
		BeforeEach(func() {
			input = encodePNG(noiseImage(200, 200))
			contentType = "IMAGE/PNG "
			maxBytes = 4000
		})

		It("fits the result under the limit", func() {
			Expect(len(output)).To(BeNumerically("<=", 4000))
		})

		It("shrinks the image", func() {
			img, err := jpeg.Decode(bytes.NewReader(output))
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(BeNumerically("<", 200))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			input = []byte("definitely not an image")
			contentType = "application/octet-stream"
			maxBytes = 0
		})

		It("returns the original bytes", func() {
			Expect(output).To(Equal(input))
		})

		It("keeps the original content type", func() {
			Expect(mimeType).To(Equal("application/octet-stream"))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("detects the heic brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("rejects short input", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("rejects other brands", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypisom0000")...)
		Expect(isHEICFormat(data)).To(BeFalse())
	})
})
