package expense

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Integration", func() {
	var (
		tempDir  string
		db       *BoltDB
		store    *LocalStorage
		ocr      *mockOCR
		server   *Server
		ghServer *ghttp.Server
		err      error
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(filepath.Join(tempDir, "images"))
		Expect(err).NotTo(HaveOccurred())

		ocr = newMockOCR()
		ocr.text = "Uber Trip\n05/03/2024\nTotal: $23.10"

		server = NewServer(NewService(db, ocr, store, Settings{}), BasicAuth{})
		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		ghServer.Close()
		db.Close()
	})

	It("should upload a receipt, parse it, serve it back and delete it", func() {
		ghServer.AppendHandlers(
			server.ServeHTTP, // create
			server.ServeHTTP, // get
			server.ServeHTTP, // image
			server.ServeHTTP, // delete
			server.ServeHTTP, // get after delete
		)

		// --- Step 1: Create ---
		fileContent := []byte("not really a jpeg")
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("image", "uber.jpg")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(fileContent)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghServer.URL()+"/expenses", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var created map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		resp.Body.Close()
		id := created["id"]
		Expect(id).NotTo(BeEmpty())

		// --- Step 2: Read back ---
		resp, err = http.Get(ghServer.URL() + "/expenses/" + id)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var expense map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&expense)).To(Succeed())
		resp.Body.Close()
		Expect(expense["vendor"]).To(Equal("Uber Trip"))
		Expect(expense["date"]).To(Equal("2024-03-05"))
		Expect(expense["amount_cents"]).To(BeNumerically("==", 2310))
		Expect(expense["category"]).To(Equal("Travel"))
		Expect(expense["currency"]).To(Equal("AUD"))
		Expect(expense["has_image"]).To(BeTrue())

		// --- Step 3: Image ---
		resp, err = http.Get(ghServer.URL() + "/expenses/" + id + "/image")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(data).To(Equal(fileContent))

		// --- Step 4: Delete ---
		req, err := http.NewRequest(http.MethodDelete, ghServer.URL()+"/expenses/"+id, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err = http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		resp.Body.Close()

		resp, err = http.Get(ghServer.URL() + "/expenses/" + id)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		resp.Body.Close()

		_, err = store.Get(id + "_uber.jpg")
		Expect(err).To(MatchError(ErrNotFound))
	})
})
