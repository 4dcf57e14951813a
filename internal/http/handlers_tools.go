package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"multitool/internal/arith"
	"multitool/internal/core"
	applog "multitool/internal/log"
)

type qrCodeResponse struct {
	QRCodeURL string `json:"qrCodeUrl"`
}

type basicCalcResponse struct {
	Result  float64  `json:"result"`
	Display string   `json:"display"`
	History []string `json:"history"`
}

// historyKey scopes calculator history to a user.
func historyKey(u core.User) string {
	return "calc:" + strconv.FormatInt(u.ID, 10)
}

// handleQRCode returns the goQR.me image URL for ?text=.
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request, _ core.User) {
	u, err := s.QR.URL(r.URL.Query().Get("text"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, qrCodeResponse{QRCodeURL: u})
}

// handleQRCodeImage proxies the rendered PNG as a download.
func (s *Server) handleQRCodeImage(w http.ResponseWriter, r *http.Request, _ core.User) {
	img, err := s.QR.Fetch(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Content-Disposition", `attachment; filename="qrcode.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// handleBasicCalc evaluates {expression} or applies {op, value} and
// records the outcome in the user's history.
func (s *Server) handleBasicCalc(w http.ResponseWriter, r *http.Request, user core.User) {
	var req basicCalcRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, applog.OpCalculate, err)
		return
	}

	var (
		result float64
		entry  string
		err    error
	)
	switch {
	case strings.TrimSpace(req.Op) != "":
		if req.Value == nil {
			writeError(w, http.StatusBadRequest, "Value is required")
			return
		}
		op := arith.Op(strings.ToLower(strings.TrimSpace(req.Op)))
		result, err = arith.Apply(op, *req.Value)
		entry = op.Describe(*req.Value)
	default:
		expr := sanitizeInput(req.Expression)
		result, err = arith.Eval(expr)
		entry = expr
	}
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentArith).DebugContext(r.Context(), "Calculator input rejected",
			applog.FieldError, err.Error())
		s.writeServiceError(w, r, applog.OpCalculate, err)
		return
	}

	display := arith.Format(result)
	history := s.History.Add(historyKey(user), fmt.Sprintf("%s = %s", entry, display))
	writeJSON(w, http.StatusOK, basicCalcResponse{Result: result, Display: display, History: history})
}

func (s *Server) handleClearCalcHistory(w http.ResponseWriter, _ *http.Request, user core.User) {
	s.History.Clear(historyKey(user))
	writeJSON(w, http.StatusOK, basicCalcResponse{History: []string{}})
}
