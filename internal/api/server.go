package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hoard/internal/config"
	"hoard/internal/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// The API trusts its callers to identify players: dispatchers (the chat bot,
// the ops CLI) authenticate with a shared engine token and pass the platform
// user id in the path. Players never talk to this API directly.

type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	engine *engine.Service
	mux    *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, eng *engine.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		engine: eng,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Route("/players/{id}", func(r chi.Router) {
			r.Get("/profile", s.handleProfile)
			r.Post("/grant", s.handleGrant)
			r.Post("/deposit", s.handleDeposit)
			r.Post("/withdraw", s.handleWithdraw)
			r.Post("/daily", s.handleDaily)
			r.Post("/prestige", s.handlePrestige)
			r.Post("/skills/{skill}/train", s.handleTrainSkill)

			r.Post("/pets/hunt", s.handleHunt)
			r.Post("/pets/swap", s.handleSwap)
			r.Get("/pets/budget", s.handleSwapBudget)
			r.Post("/pets/{pet}/equip", s.handleEquip)
			r.Post("/pets/{pet}/unequip", s.handleUnequip)
			r.Post("/pets/{pet}/feed", s.handleFeed)
			r.Post("/pets/{pet}/ability", s.handleAbility)

			r.Get("/farm", s.handleFarm)
			r.Post("/farm/plots/buy", s.handleBuyPlot)
			r.Post("/farm/plots/{plot}/plant", s.handlePlant)
			r.Post("/farm/harvest", s.handleHarvestAll)

			r.Get("/dive", s.handleCurrentDive)
			r.Post("/dive/start", s.handleStartDive)
			r.Post("/dive/deeper", s.handleDiveDeeper)
			r.Post("/dive/surface", s.handleSurface)

			r.Get("/cooldowns/{action}", s.handleCooldown)
			r.Get("/items/{item}", s.handleItemCount)
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.EngineToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid engine token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func playerID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if err := s.engine.EnsurePlayer(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.engine.Profile(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Coins       int64   `json:"coins"`
		XP          int64   `json:"xp"`
		ServerBonus float64 `json:"server_bonus"`
		Reason      string  `json:"reason"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.engine.Grant(r.Context(), engine.GrantInput{
		PlayerID:    playerID(r),
		Coins:       in.Coins,
		XP:          in.XP,
		ServerBonus: in.ServerBonus,
		Reason:      in.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleBalanceMove(w, r, s.engine.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleBalanceMove(w, r, s.engine.Withdraw)
}

func (s *Server) handleBalanceMove(w http.ResponseWriter, r *http.Request, move func(context.Context, string, int64) (engine.BalanceResult, error)) {
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := move(r.Context(), playerID(r), in.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.ClaimDaily(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Prestige(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrainSkill(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.TrainSkill(r.Context(), playerID(r), chi.URLParam(r, "skill"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHunt(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Hunt(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Equip(r.Context(), playerID(r), chi.URLParam(r, "pet"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Unequip(r.Context(), playerID(r), chi.URLParam(r, "pet"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Out string `json:"out"`
		In  string `json:"in"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.engine.Swap(r.Context(), playerID(r), in.Out, in.In)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSwapBudget(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.SwapBudget(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Foods map[string]int64 `json:"foods"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.engine.Feed(r.Context(), playerID(r), chi.URLParam(r, "pet"), in.Foods)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAbility(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.UseAbility(r.Context(), playerID(r), chi.URLParam(r, "pet"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFarm(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Farm(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyPlot(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Plot int32 `json:"plot"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.engine.BuyPlot(r.Context(), playerID(r), in.Plot)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	plot64, err := strconv.ParseInt(chi.URLParam(r, "plot"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plot number")
		return
	}
	var in struct {
		Crop string `json:"crop"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.engine.Plant(r.Context(), playerID(r), int32(plot64), in.Crop)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHarvestAll(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.HarvestAll(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrentDive(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.CurrentDive(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStartDive(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.StartDive(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDiveDeeper(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.DiveDeeper(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Surface(r.Context(), playerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	remaining, active, err := s.engine.Peek(r.Context(), playerID(r), chi.URLParam(r, "action"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":            active,
		"remaining_seconds": remaining.Seconds(),
	})
}

func (s *Server) handleItemCount(w http.ResponseWriter, r *http.Request) {
	qty, err := s.engine.ItemCount(r.Context(), playerID(r), chi.URLParam(r, "item"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quantity": qty})
}

func writeDomainError(w http.ResponseWriter, err error) {
	if ce, ok := engine.IsCooldownActive(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(ce.Remaining.Seconds())+1))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             ce.Error(),
			"action":            ce.Action,
			"remaining_seconds": ce.Remaining.Seconds(),
		})
		return
	}
	switch {
	case errors.Is(err, engine.ErrPlayerNotFound), errors.Is(err, engine.ErrPetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrBudgetExhausted):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, engine.ErrNotEligible):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrAlreadyDiving),
		errors.Is(err, engine.ErrNotDiving),
		errors.Is(err, engine.ErrPlotOccupied),
		errors.Is(err, engine.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrInsufficientItems),
		errors.Is(err, engine.ErrInsufficientEnergy),
		errors.Is(err, engine.ErrBankCapacity),
		errors.Is(err, engine.ErrEquipSlotsFull),
		errors.Is(err, engine.ErrNotEquipped),
		errors.Is(err, engine.ErrAlreadyEquipped),
		errors.Is(err, engine.ErrPlotLocked),
		errors.Is(err, engine.ErrPlotNotOwned),
		errors.Is(err, engine.ErrNotFood),
		errors.Is(err, engine.ErrUnknownItem),
		errors.Is(err, engine.ErrUnknownCrop),
		errors.Is(err, engine.ErrUnknownSkill),
		errors.Is(err, engine.ErrUnknownPet):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
