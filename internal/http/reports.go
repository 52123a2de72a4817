package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"conservadora/internal/export"
	"conservadora/internal/log"
	"conservadora/internal/report"
)

// CacheHeader tells whether a report came from the cache.
const CacheHeader = "X-Cache"

// report builds or reuses the report for the filter in the query. Cached
// entries are keyed by session revision so any change invalidates them.
func (s *Server) report(r *http.Request) (report.Report, bool, error) {
	f, err := parseFilter(r)
	if err != nil {
		return report.Report{}, false, err
	}
	key := strconv.FormatUint(s.session.Revision(), 10) + "|" + f.Key()
	if rep, ok := s.reports.Get(key); ok {
		return rep, true, nil
	}
	rep := report.Build(s.session.Data(), f)
	s.reports.Set(key, rep)
	return rep, false, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, hit, err := s.report(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Header(CacheHeader, cacheStatus(hit)).Data(rep).Write(w)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, hit, err := s.report(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rep); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook generation failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		InternalError("falha ao gerar planilha").Write(w)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, xlsxName(rep.Filter)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set(CacheHeader, cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(report.Dashboard(s.session.Data(), s.now())).Write(w)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	d := s.session.Data()
	NewJSONResponse().Data(report.Documents(d.Staff, d.Condominiums)).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Refresh(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
		errorResponse(err).Write(w)
		return
	}
	NewJSONResponse().Data(map[string]uint64{"revision": s.session.Revision()}).Write(w)
}

func xlsxName(f report.Filter) string {
	if f.Month.IsZero() {
		return "relatorio.xlsx"
	}
	return "relatorio-" + f.Month.String() + ".xlsx"
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
