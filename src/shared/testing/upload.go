package testing

import (
	"bytes"
	"github.com/labstack/echo/v4"
	"github.com/onsi/gomega"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
)

// MakeUploadRequest builds a multipart POST with the given bytes attached
// under the "file" field, the same shape a browser upload produces.
func MakeUploadRequest(target string, fileName string, contents []byte) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filePart, err := writer.CreateFormFile("file", fileName)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	_, err = filePart.Write(contents)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	err = writer.Close()
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	request := httptest.NewRequest("POST", target, body)
	request.Header.Set(echo.HeaderContentType, writer.FormDataContentType())

	return request
}
