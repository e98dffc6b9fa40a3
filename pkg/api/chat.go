package api

import (
	"errors"
	"net/http"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/Sternrassler/storefront/pkg/intent"
)

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type chatResponse struct {
	intent.Reply

	// Failed is set when an action was attempted and did not happen.
	Failed bool `json:"failed,omitempty"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, ok := s.identify(w, r)
	if !ok {
		return
	}

	reply, err := s.assistant.Handle(r.Context(), id, req.Message)
	if reply.Actions == nil {
		reply.Actions = []string{}
	}
	if err != nil {
		if errors.Is(err, cart.ErrNoIdentity) || reply.Text == "" {
			s.fail(w, r, err)
			return
		}
		s.logger.Warn().
			Err(err).
			Str("identity", id.String()).
			Str("request_id", requestID(r)).
			Msg("Chat action failed")
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Failed: true})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
