package statement

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func multipartUpload(files map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, payload := range files {
		part, err := writer.CreateFormFile("files", name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(payload))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(writer.Close()).NotTo(HaveOccurred())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		extractor *mockExtractor
		store     *mockSessionStore
		notifier  *MemoryNotifier
		queue     *Queue
		server    *Server
		recorder  *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		extractor = newMockExtractor()
		store = newMockSessionStore()
		notifier = NewMemoryNotifier()
		queue = NewQueueWithDeps(extractor, store, notifier, &mockIDGenerator{})
		server = NewServer(queue, store, notifier, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	Describe("POST /api/files", func() {
		It("processes the batch and returns settled trackers with the summary", func() {
			extractor.results["payload-a"] = validResult(100, -25)
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})

			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var resp struct {
				Trackers []FileTracker `json:"trackers"`
				Summary  BatchSummary  `json:"summary"`
			}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Trackers).To(HaveLen(1))
			Expect(resp.Trackers[0].FileName).To(Equal("a.png"))
			Expect(resp.Trackers[0].Status).To(Equal(StatusComplete))
			Expect(resp.Summary.ProcessedFiles).To(Equal(1))
			Expect(resp.Summary.NetFlowUSD).To(BeNumerically("~", 75, 1e-9))
		})

		It("rejects an empty upload", func() {
			body, contentType := multipartUpload(nil)

			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(ContainSubstring("No files were selected"))
		})
	})

	Describe("GET /api/queue", func() {
		It("returns the tracker queue and processing flag", func() {
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})
			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(httptest.NewRecorder(), req)

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/queue", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var resp struct {
				Trackers   []FileTracker `json:"trackers"`
				Processing bool          `json:"processing"`
			}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Trackers).To(HaveLen(1))
			Expect(resp.Processing).To(BeFalse())
		})
	})

	Describe("GET /api/statements", func() {
		It("returns the statement collection", func() {
			extractor.results["payload-a"] = validResult(10)
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})
			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(httptest.NewRecorder(), req)

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/statements", nil))

			var statements []StatementData
			Expect(json.Unmarshal(recorder.Body.Bytes(), &statements)).To(Succeed())
			Expect(statements).To(HaveLen(1))
			Expect(statements[0].FileName).To(Equal("a.png"))
		})
	})

	Describe("GET /api/notices", func() {
		It("drains notices one-shot", func() {
			notifier.Notify(NoticeInfo, "Files already in queue")

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/notices", nil))

			var notices []Notice
			Expect(json.Unmarshal(recorder.Body.Bytes(), &notices)).To(Succeed())
			Expect(notices).To(HaveLen(1))
			Expect(notices[0].Message).To(Equal("Files already in queue"))

			second := httptest.NewRecorder()
			server.ServeHTTP(second, httptest.NewRequest("GET", "/api/notices", nil))
			Expect(second.Body.String()).To(MatchJSON("[]"))
		})
	})

	Describe("GET /api/export", func() {
		It("downloads the transaction list as an attachment", func() {
			extractor.results["payload-a"] = validResult(10)
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})
			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(httptest.NewRecorder(), req)

			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/export", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(Equal("text/csv; charset=utf-8"))
			Expect(recorder.Header().Get("Content-Disposition")).To(ContainSubstring("money_sorter_export_"))
			Expect(strings.SplitN(recorder.Body.String(), "\n", 2)[0]).To(Equal(CSVHeader))
		})
	})

	Describe("POST /api/reset", func() {
		It("clears the session and surfaces a success notice", func() {
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})
			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(httptest.NewRecorder(), req)

			server.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/reset", nil))

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(queue.Trackers()).To(BeEmpty())
			Expect(notifier.Drain()).To(ContainElement(Notice{Level: NoticeSuccess, Message: "Ready for new files"}))
		})
	})

	Describe("session endpoints", func() {
		It("returns 404 when nobody is signed in", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/session", nil))
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})

		It("signs a user in and persists the profile", func() {
			req := httptest.NewRequest("POST", "/api/session", strings.NewReader(`{"name":"Alex"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusCreated))

			var user UserProfile
			Expect(json.Unmarshal(recorder.Body.Bytes(), &user)).To(Succeed())
			Expect(user.Name).To(Equal("Alex"))
			Expect(store.user).NotTo(BeNil())
			Expect(notifier.Drain()).To(ContainElement(Notice{Level: NoticeSuccess, Message: "Welcome back, Alex"}))
		})

		It("rejects a login without a name", func() {
			req := httptest.NewRequest("POST", "/api/session", strings.NewReader(`{"name":"  "}`))
			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("clears the whole workspace on logout", func() {
			body, contentType := multipartUpload(map[string]string{"a.png": "payload-a"})
			req := httptest.NewRequest("POST", "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			server.ServeHTTP(httptest.NewRecorder(), req)
			Expect(store.SaveUser(&UserProfile{Name: "Alex"})).To(Succeed())

			server.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/api/session", nil))

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(queue.Trackers()).To(BeEmpty())
			user, err := store.LoadUser()
			Expect(err).NotTo(HaveOccurred())
			Expect(user).To(BeNil())
		})
	})

	Describe("PUT /api/credential", func() {
		It("stores a plausible key", func() {
			req := httptest.NewRequest("PUT", "/api/credential", strings.NewReader(`{"api_key":"AIzaTestKey123"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			key, err := store.LoadAPIKey()
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("AIzaTestKey123"))
		})

		It("rejects a key with the wrong shape", func() {
			req := httptest.NewRequest("PUT", "/api/credential", strings.NewReader(`{"api_key":"not-a-key"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(ContainSubstring("does not look like"))
		})
	})

	Describe("GET /", func() {
		It("serves the HTML interface", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(ContainSubstring("text/html"))
			Expect(recorder.Body.String()).To(ContainSubstring("Money Sorter"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			server = NewServer(queue, store, notifier, BasicAuth{Username: "user", Password: "pass"})
		})

		It("rejects requests without credentials", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/queue", nil))
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(recorder.Header().Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("rejects wrong credentials", func() {
			req := httptest.NewRequest("GET", "/api/queue", nil)
			req.SetBasicAuth("user", "wrong")
			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		It("admits the configured credentials", func() {
			req := httptest.NewRequest("GET", "/api/queue", nil)
			req.SetBasicAuth("user", "pass")
			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("contentTypeFromName", func() {
	It("maps known extensions", func() {
		Expect(contentTypeFromName("scan.PDF")).To(Equal("application/pdf"))
		Expect(contentTypeFromName("receipt.jpeg")).To(Equal("image/jpeg"))
		Expect(contentTypeFromName("photo.HEIC")).To(Equal("image/heic"))
	})

	It("falls back to octet-stream", func() {
		Expect(contentTypeFromName("notes.txt")).To(Equal("application/octet-stream"))
	})
})
