package separation_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	separationentity "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/entity"
	separationerrors "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/errors"
	separationgateway "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/gateway"
	separationusecase "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/usecase"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/separation/validation"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine"
	sessionstorage "github.com/hollowtone/vocal-remover-be/src/shared/session/storage"
	. "github.com/hollowtone/vocal-remover-be/src/shared/testing"
	"github.com/hollowtone/vocal-remover-be/src/shared/testing/dummy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const maxTestFileSize = 1024 * 1024

var _ = Describe("Separation endpoints", func() {
	var (
		storageRoot   string
		engineWorkDir string

		dummyExecutor *dummy.SpleeterExecutor
		workspaces    sessionstorage.Workspaces

		usecase           separationusecase.Usecase
		separationGateway separationgateway.Gateway

		timeout time.Duration
	)

	BeforeEach(func() {
		timeout = time.Minute

		var err error
		storageRoot, err = os.MkdirTemp("", "separation_sessions")
		Expect(err).NotTo(HaveOccurred())

		engineWorkDir, err = os.MkdirTemp("", "separation_wd")
		Expect(err).NotTo(HaveOccurred())

		workspaces, err = sessionstorage.NewWorkspaces(storageRoot)
		Expect(err).NotTo(HaveOccurred())

		dummyExecutor = dummy.NewDummySpleeterExecutor()
	})

	JustBeforeEach(func() {
		splitter := ExpectSuccess(engine.NewSpleeterSplitter("/somewhere/spleeter", engineWorkDir, timeout, dummyExecutor))
		usecase = separationusecase.NewUsecase(workspaces, splitter, validation.DefaultPolicy(maxTestFileSize))
		separationGateway = separationgateway.NewGateway(usecase)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(storageRoot)).To(Succeed())
		Expect(os.RemoveAll(engineWorkDir)).To(Succeed())
	})

	separateUpload := func(fileName string, contents []byte) *httptest.ResponseRecorder {
		request := MakeUploadRequest("/separate", fileName, contents)
		response := httptest.NewRecorder()
		c := PrepareEchoContext(request, response)

		err := separationGateway.Separate(c)
		Expect(err).NotTo(HaveOccurred())
		return response
	}

	downloadTrack := func(sessionID string, trackKind string) *httptest.ResponseRecorder {
		request := httptest.NewRequest("GET", "/download/"+sessionID+"/"+trackKind, nil)
		response := httptest.NewRecorder()
		c := PrepareEchoContext(request, response)

		err := separationGateway.DownloadTrack(c, sessionID, trackKind)
		Expect(err).NotTo(HaveOccurred())
		return response
	}

	cleanupSession := func(sessionID string) *httptest.ResponseRecorder {
		request := httptest.NewRequest("DELETE", "/cleanup/"+sessionID, nil)
		response := httptest.NewRecorder()
		c := PrepareEchoContext(request, response)

		err := separationGateway.CleanupSession(c, sessionID)
		Expect(err).NotTo(HaveOccurred())
		return response
	}

	listSessionDirs := func() []string {
		dirEntries, err := os.ReadDir(storageRoot)
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, dirEntry := range dirEntries {
			names = append(names, dirEntry.Name())
		}
		return names
	}

	Describe("Upload and download", func() {
		Describe("With a valid mp3 upload", func() {
			var (
				response *httptest.ResponseRecorder
				result   separationgateway.SeparationResponse
			)

			JustBeforeEach(func() {
				response = separateUpload("song.mp3", []byte("cool_jamz"))
				result = DecodeJSON[separationgateway.SeparationResponse](response.Body)
			})

			It("succeeds with a session and both download handles", func() {
				Expect(response.Code).To(Equal(http.StatusOK))

				Expect(result.SessionID).NotTo(BeEmpty())
				Expect(result.OriginalFilename).To(Equal("song.mp3"))
				Expect(result.VocalsFile).To(Equal("/download/" + result.SessionID + "/vocals"))
				Expect(result.InstrumentalFile).To(Equal("/download/" + result.SessionID + "/instrumental"))
				Expect(result.Message).To(Equal("Separation completed successfully"))
			})

			It("serves both stems for the same session", func() {
				vocalsResponse := downloadTrack(result.SessionID, "vocals")
				Expect(vocalsResponse.Code).To(Equal(http.StatusOK))
				Expect(vocalsResponse.Header().Get("Content-Type")).To(Equal("audio/wav"))
				Expect(vocalsResponse.Body.Bytes()).To(Equal([]byte("cool_jamz-vocals")))

				instrumentalResponse := downloadTrack(result.SessionID, "instrumental")
				Expect(instrumentalResponse.Code).To(Equal(http.StatusOK))
				Expect(instrumentalResponse.Header().Get("Content-Type")).To(Equal("audio/wav"))
				Expect(instrumentalResponse.Body.Bytes()).To(Equal([]byte("cool_jamz-accompaniment")))
			})

			It("removes the transient input file from the workspace", func() {
				sessionDirs := listSessionDirs()
				Expect(sessionDirs).To(HaveLen(1))

				workspacePath := storageRoot + "/" + sessionDirs[0]
				dirEntries, err := os.ReadDir(workspacePath)
				Expect(err).NotTo(HaveOccurred())

				for _, dirEntry := range dirEntries {
					Expect(dirEntry.IsDir()).To(BeTrue(), "leftover file: "+dirEntry.Name())
				}
			})
		})

		Describe("With an unsupported format", func() {
			It("rejects the upload before anything touches the disk", func() {
				response := separateUpload("song.ogg", []byte("cool_jamz"))
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.UnsupportedFormatCode)))

				Expect(listSessionDirs()).To(BeEmpty())
			})
		})

		Describe("With an upload above the size ceiling", func() {
			It("rejects the upload citing the ceiling", func() {
				oversized := bytes.Repeat([]byte("a"), maxTestFileSize+1)
				response := separateUpload("song.wav", oversized)
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.FileTooLargeCode)))
				Expect(jsonError.Msg).To(ContainSubstring("Maximum size"))

				Expect(listSessionDirs()).To(BeEmpty())
			})
		})

		Describe("With no file attached", func() {
			It("rejects the upload as bad upload data", func() {
				request := httptest.NewRequest("POST", "/separate", nil)
				response := httptest.NewRecorder()
				c := PrepareEchoContext(request, response)

				err := separationGateway.Separate(c)
				Expect(err).NotTo(HaveOccurred())
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.BadUploadDataCode)))
			})
		})

		Describe("Downloading from an unknown session", func() {
			It("reports session not found for a well-formed ID", func() {
				response := downloadTrack(uuid.NewString(), "vocals")
				Expect(response.Code).To(Equal(http.StatusNotFound))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.SessionNotFoundCode)))
			})
		})

		Describe("Downloading an unknown track kind", func() {
			It("reports the caller error distinctly from not found", func() {
				response := downloadTrack(uuid.NewString(), "bassline")
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.InvalidTrackKindCode)))
			})
		})
	})

	Describe("Engine failures", func() {
		extractSessionID := func() string {
			sessionDirs := listSessionDirs()
			Expect(sessionDirs).To(HaveLen(1))
			return strings.TrimPrefix(sessionDirs[0], "vocal_remover_")
		}

		Describe("When the engine exits non-zero", func() {
			BeforeEach(func() {
				dummyExecutor.Unavailable = true
				dummyExecutor.Diagnostic = "model checkpoint corrupted"
			})

			It("reports the failure with the diagnostic excerpt", func() {
				response := separateUpload("song.mp3", []byte("cool_jamz"))
				Expect(response.Code).To(Equal(http.StatusInternalServerError))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.EngineFailureCode)))
				Expect(jsonError.ErrorDetails).To(ContainSubstring("model checkpoint corrupted"))
			})

			It("leaves no resolvable download handle behind", func() {
				separateUpload("song.mp3", []byte("cool_jamz"))
				sessionID := extractSessionID()

				vocalsResponse := downloadTrack(sessionID, "vocals")
				Expect(vocalsResponse.Code).To(Equal(http.StatusNotFound))

				instrumentalResponse := downloadTrack(sessionID, "instrumental")
				Expect(instrumentalResponse.Code).To(Equal(http.StatusNotFound))
			})
		})

		Describe("When the engine exits cleanly without outputs", func() {
			BeforeEach(func() {
				dummyExecutor.SkipOutputs = true
			})

			It("reports the contract breach as its own failure kind", func() {
				response := separateUpload("song.mp3", []byte("cool_jamz"))
				Expect(response.Code).To(Equal(http.StatusInternalServerError))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.OutputMissingCode)))
			})
		})

		Describe("When the engine hangs past the separation deadline", func() {
			BeforeEach(func() {
				dummyExecutor.Stall = true
				timeout = 50 * time.Millisecond
			})

			It("terminates the engine and reports a timeout", func() {
				response := separateUpload("song.mp3", []byte("cool_jamz"))
				Expect(response.Code).To(Equal(http.StatusRequestTimeout))

				jsonError := DecodeJSONError(response.Body)
				Expect(jsonError.Code).To(Equal(string(separationerrors.ProcessingTimeoutCode)))
			})

			It("still removes the transient input file", func() {
				separateUpload("song.mp3", []byte("cool_jamz"))
				sessionID := extractSessionID()

				workspacePath, err := workspaces.Resolve(sessionID)
				Expect(err).NotTo(HaveOccurred())

				dirEntries, err := os.ReadDir(workspacePath)
				Expect(err).NotTo(HaveOccurred())

				for _, dirEntry := range dirEntries {
					Expect(dirEntry.IsDir()).To(BeTrue(), "leftover file: "+dirEntry.Name())
				}
			})
		})
	})

	Describe("Authoritative size check", func() {
		It("rejects oversized bytes regardless of what was declared", func() {
			// bypass the transport's declared metadata entirely
			oversized := bytes.Repeat([]byte("a"), maxTestFileSize+1)
			_, apiErr := usecase.Separate(context.Background(), separationentity.Upload{
				FileName: "song.wav",
				Contents: oversized,
			})

			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(separationerrors.FileTooLargeCode))
			Expect(listSessionDirs()).To(BeEmpty())
		})
	})

	Describe("Cleanup", func() {
		var sessionID string

		JustBeforeEach(func() {
			response := separateUpload("song.mp3", []byte("cool_jamz"))
			result := DecodeJSON[separationgateway.SeparationResponse](response.Body)
			sessionID = result.SessionID
			Expect(sessionID).NotTo(BeEmpty())
		})

		It("removes the whole workspace", func() {
			response := cleanupSession(sessionID)
			Expect(response.Code).To(Equal(http.StatusOK))

			result := DecodeJSON[separationgateway.CleanupResponse](response.Body)
			Expect(result.Status).To(Equal("removed"))

			Expect(listSessionDirs()).To(BeEmpty())

			downloadResponse := downloadTrack(sessionID, "vocals")
			Expect(downloadResponse.Code).To(Equal(http.StatusNotFound))
		})

		It("is idempotent, with the second call distinguishable as already absent", func() {
			firstResponse := cleanupSession(sessionID)
			Expect(firstResponse.Code).To(Equal(http.StatusOK))
			firstResult := DecodeJSON[separationgateway.CleanupResponse](firstResponse.Body)
			Expect(firstResult.Status).To(Equal("removed"))

			secondResponse := cleanupSession(sessionID)
			Expect(secondResponse.Code).To(Equal(http.StatusOK))
			secondResult := DecodeJSON[separationgateway.CleanupResponse](secondResponse.Body)
			Expect(secondResult.Status).To(Equal("already_absent"))
		})

		It("treats an unknown session as already cleaned up", func() {
			response := cleanupSession(uuid.NewString())
			Expect(response.Code).To(Equal(http.StatusOK))

			result := DecodeJSON[separationgateway.CleanupResponse](response.Body)
			Expect(result.Status).To(Equal("already_absent"))
		})
	})

	Describe("Health", func() {
		It("reports the engine and service configuration", func() {
			request := httptest.NewRequest("GET", "/health", nil)
			response := httptest.NewRecorder()
			c := PrepareEchoContext(request, response)

			err := separationGateway.Health(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(response.Code).To(Equal(http.StatusOK))

			result := DecodeJSON[separationgateway.HealthResponse](response.Body)
			Expect(result.Status).To(Equal("healthy"))
			Expect(result.SpleeterAvailable).To(BeTrue())
			Expect(result.TempDir).To(Equal(workspaces.Root()))
			Expect(result.MaxFileSizeMB).To(Equal(int64(1)))
		})

		Describe("When the engine binary is broken", func() {
			BeforeEach(func() {
				dummyExecutor.Unavailable = true
			})

			It("reports the engine as unavailable", func() {
				request := httptest.NewRequest("GET", "/health", nil)
				response := httptest.NewRecorder()
				c := PrepareEchoContext(request, response)

				err := separationGateway.Health(c)
				Expect(err).NotTo(HaveOccurred())

				result := DecodeJSON[separationgateway.HealthResponse](response.Body)
				Expect(result.SpleeterAvailable).To(BeFalse())
			})
		})
	})
})
