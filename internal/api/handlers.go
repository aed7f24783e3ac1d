package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"runtime"

	"github.com/rs/zerolog/hlog"
	"gocv.io/x/gocv"

	"region-obliterator/internal/codec"
	"region-obliterator/internal/mask"
	"region-obliterator/internal/models"
	"region-obliterator/internal/opencv/safe"
	"region-obliterator/internal/operator"
)

// requestError carries the status a failure should be reported with.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) handleBlur(w http.ResponseWriter, r *http.Request) {
	s.handleProcess(w, r, func(req *ProcessRequest) (operator.PixelOperator, error) {
		kernel := s.cfg.Blur.KernelSize
		if req.KernelSize != nil {
			k := *req.KernelSize
			if k != math.Trunc(k) || k <= 0 || k > safe.MaxDimension {
				return nil, badRequest("kernel_size must be a positive integer")
			}
			kernel = int(k)
		}

		op, err := operator.NewBlurEngine(s.cfg.Blur.Engine, kernel)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		return op, nil
	})
}

func (s *Server) handleInpaint(w http.ResponseWriter, r *http.Request) {
	s.handleProcess(w, r, func(*ProcessRequest) (operator.PixelOperator, error) {
		return operator.NewInpaint(s.cfg.Inpaint.Radius)
	})
}

type operatorFactory func(req *ProcessRequest) (operator.PixelOperator, error)

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request, newOperator operatorFactory) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	if timeout := s.cfg.Server.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.process(ctx, r, newOperator)
	if err != nil {
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("processing failed")
		} else {
			hlog.FromRequest(r).Warn().Err(err).Str("path", r.URL.Path).Msg("request rejected")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{Success: true, Result: result})
}

func (s *Server) process(ctx context.Context, r *http.Request, newOperator operatorFactory) (string, error) {
	log := hlog.FromRequest(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", &requestError{status: http.StatusRequestEntityTooLarge, msg: "Request body too large"}
		}
		return "", badRequest("failed to read request body: %v", err)
	}
	if len(body) == 0 {
		return "", badRequest("No data provided")
	}

	var req ProcessRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", badRequest("Invalid JSON body: %v", err)
	}
	if req.Image == "" || req.Mask == "" {
		return "", badRequest("Missing image or mask data")
	}

	op, err := newOperator(&req)
	if err != nil {
		return "", err
	}

	img, err := s.codec.DecodeBase64Image("image", req.Image)
	if err != nil {
		return "", err
	}
	defer img.Close()

	rawMask, err := s.codec.DecodeBase64Mask("mask", req.Mask)
	if err != nil {
		return "", err
	}
	defer rawMask.Close()

	if err := safe.ValidateSameSize(img, rawMask, op.Name()); err != nil {
		return "", badRequest("mask dimensions %dx%d do not match image %dx%d",
			rawMask.Cols(), rawMask.Rows(), img.Cols(), img.Rows())
	}

	minVal, maxVal, _, _ := gocv.MinMaxLoc(rawMask.GetMat())
	log.Debug().
		Str("operation", op.Name()).
		Int("width", img.Cols()).
		Int("height", img.Rows()).
		Float32("mask_min", minVal).
		Float32("mask_max", maxVal).
		Msg("decoded request")

	store, err := mask.FromMat(rawMask, s.cfg.Mask.ServiceThreshold)
	if err != nil {
		return "", &models.ProcessingError{Operation: op.Name(), Err: err}
	}
	defer store.Close()

	selection, err := store.BinaryView(store.Threshold())
	if err != nil {
		return "", &models.ProcessingError{Operation: op.Name(), Err: err}
	}
	defer selection.Close()

	stop := s.timings.Start(op.Name())
	result, err := op.Apply(ctx, img, selection)
	elapsed := stop()
	log.Debug().Str("operation", op.Name()).Dur("elapsed", elapsed).Msg("operator finished")
	if errors.Is(err, models.ErrEmptySelection) {
		log.Warn().Str("operation", op.Name()).Msg("mask is empty, returning input unchanged")
		err = nil
	}
	if err != nil {
		return "", err
	}
	defer result.Close()

	// Native transforms do not observe ctx while they run.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	encoded, err := codec.EncodePNGDataURI(result)
	if err != nil {
		return "", &models.ProcessingError{Operation: "encode", Err: err}
	}
	return encoded, nil
}

// classify maps an error onto an HTTP status and client-facing message.
func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.msg
	case models.IsLoadError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Processing timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		OpenCVVersion: gocv.OpenCVVersion(),
		GoVersion:     runtime.Version(),
		Memory:        s.memory.GetStats(),
		Operations:    s.timings.Summaries(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ProcessResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
