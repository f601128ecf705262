package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/generator"
	"github.com/gokaycavdar/go-cdrguard/pkg/geoip"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
	"github.com/gokaycavdar/go-cdrguard/pkg/parser"
	"github.com/gokaycavdar/go-cdrguard/pkg/report"
	"github.com/gokaycavdar/go-cdrguard/pkg/storage"
)

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	NumUsers           int    `json:"num_users"`
	TimeRangeDays      int    `json:"time_range_days"`
	NumSuspiciousUsers int    `json:"num_suspicious_users"`
	EnableVPNDetection bool   `json:"enable_vpn_detection"`
	Seed               *int64 `json:"seed,omitempty"`
}

// GenerateResponse carries the ground truth and both CSV tables.
type GenerateResponse struct {
	Metadata       generator.Metadata `json:"metadata"`
	UsersCSV       string             `json:"users_csv"`
	ConnectionsCSV string             `json:"connections_csv"`
}

// AnalyzeResponse is the body returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	Parse       parser.Metadata        `json:"parse"`
	GeoEnriched int                    `json:"geo_enriched"`
	Result      *models.AnalysisResult `json:"result"`
	Alerts      []models.Alert         `json:"alerts"`
	Report      *storage.StoredReport  `json:"report,omitempty"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NumUsers > s.opts.MaxUsers {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": (&generator.ConfigError{
				Field:  "num_users",
				Value:  req.NumUsers,
				Reason: "exceeds the server limit",
			}).Error(),
		})
		return
	}

	cfg := generator.Config{
		NumUsers:           req.NumUsers,
		TimeRangeDays:      req.TimeRangeDays,
		NumSuspiciousUsers: req.NumSuspiciousUsers,
		EnableVPNPatterns:  req.EnableVPNDetection,
		Seed:               s.opts.DefaultSeed,
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}

	ds, err := generator.Generate(cfg)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var users, conns bytes.Buffer
	if err := generator.WriteUsersCSV(&users, ds.Users); err != nil {
		abortWithError(c, err)
		return
	}
	if err := generator.WriteConnectionsCSV(&conns, ds.Connections); err != nil {
		abortWithError(c, err)
		return
	}
	s.opts.Metrics.AddGeneratedConnections(len(ds.Connections))

	c.JSON(http.StatusOK, GenerateResponse{
		Metadata:       ds.Metadata,
		UsersCSV:       users.String(),
		ConnectionsCSV: conns.String(),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	started := time.Now()

	users, err := formFile(c, "users")
	if err != nil {
		s.opts.Metrics.IncAnalysisErrors()
		abortWithError(c, err)
		return
	}
	defer users.Close()
	conns, err := formFile(c, "connections")
	if err != nil {
		s.opts.Metrics.IncAnalysisErrors()
		abortWithError(c, err)
		return
	}
	defer conns.Close()

	ds, err := parser.Parse(users, conns)
	if err != nil {
		s.opts.Metrics.IncAnalysisErrors()
		abortWithError(c, err)
		return
	}
	s.opts.Metrics.AddParseDroppedRows(ds.Metadata.DroppedRows)

	resp := AnalyzeResponse{Parse: ds.Metadata}
	connections := ds.Connections
	if s.opts.Geo != nil {
		connections, resp.GeoEnriched = geoip.Enrich(connections, s.opts.Geo)
	}

	resp.Result = s.opts.Engine.Analyze(ds.Users, connections)
	resp.Alerts = report.Alerts(resp.Result)
	for _, a := range resp.Alerts {
		logger.ReportLog.Warn(a.Message)
	}

	owner, name := c.PostForm("owner"), c.PostForm("name")
	if owner != "" && name != "" {
		stored, err := s.opts.Store.Save(owner, name, resp.Result)
		if err != nil {
			abortWithError(c, err)
			return
		}
		resp.Report = stored
	}

	finished := time.Now()
	s.opts.Metrics.ObserveAnalysis(resp.Result, finished.Sub(started).Seconds(), float64(finished.Unix()))
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListReports(c *gin.Context) {
	reports, err := s.opts.Store.List(c.Param("owner"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) handleGetReport(c *gin.Context) {
	rep, err := s.opts.Store.Get(c.Param("owner"), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// formFile opens a multipart upload. A missing field is reported as
// parser.ErrMissingInput.
func formFile(c *gin.Context, field string) (multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, errors.Wrap(parser.ErrMissingInput, field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s upload", field)
	}
	return f, nil
}
