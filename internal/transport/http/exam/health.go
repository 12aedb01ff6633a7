package exam

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/disk"

	httptransport "exam-analyzer-go/internal/transport/http"
)

type healthData struct {
	Status        string           `json:"status"`
	Time          time.Time        `json:"time"`
	Provider      string           `json:"provider"`
	Model         string           `json:"model"`
	KeyConfigured bool             `json:"key_configured"`
	References    *referenceHealth `json:"references,omitempty"`
}

type referenceHealth struct {
	Dir         string  `json:"dir"`
	Files       int     `json:"files"`
	Bytes       int64   `json:"bytes"`
	Expected    int     `json:"expected"`
	DiskFree    uint64  `json:"disk_free,omitempty"`
	DiskUsedPct float64 `json:"disk_used_percent,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// handleHealth reports configuration and reference cache state.
// @Summary Service health
// @Tags Exam
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /api/health [get]
func (s *Service) handleHealth(c *gin.Context) {
	data := healthData{
		Status:        "ok",
		Time:          time.Now().UTC(),
		Provider:      s.cfg.Model.Provider,
		Model:         s.cfg.Model.Name,
		KeyConfigured: s.cfg.Model.Credential() != "",
	}

	if s.cache != nil {
		st, err := s.cache.Status()
		ref := &referenceHealth{Dir: st.Dir, Files: st.Files, Bytes: st.Bytes, Expected: st.Expected}
		if err != nil {
			ref.Error = err.Error()
		} else if usage, err := disk.UsageWithContext(c.Request.Context(), st.Dir); err == nil {
			ref.DiskFree = usage.Free
			ref.DiskUsedPct = usage.UsedPercent
		}
		data.References = ref
	}
	if !data.KeyConfigured {
		data.Status = "degraded"
	}

	httptransport.RespondSuccess(c, http.StatusOK, data, "")
}

// handleReferences lists the recorded reference downloads.
// @Summary Reference manifest
// @Tags Exam
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Failure 500 {object} httptransport.APIResponse
// @Router /api/references [get]
func (s *Service) handleReferences(c *gin.Context) {
	if s.manifest == nil {
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{"records": []any{}}, "manifest disabled")
		return
	}

	records, err := s.manifest.List(c.Request.Context())
	if err != nil {
		s.logger.ErrorTag("HTTP", "list reference manifest: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to list references", gin.H{"error": err.Error()})
		return
	}
	stats, err := s.manifest.Stats(c.Request.Context())
	if err != nil {
		stats = map[string]any{"error": err.Error()}
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"records": records, "stats": stats}, "")
}
