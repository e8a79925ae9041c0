package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/workbook"
)

const (
	fieldFile        = "pdf"
	fieldPagesOption = "pages_option"
	fieldPages       = "pages"
	fieldMode        = "mode"
	fieldOutputName  = "output_name"

	pagesAll      = "all"
	pagesSpecific = "specific"
)

// errBadInput marks problems with the submitted form rather than the PDF.
var errBadInput = errors.New("bad input")

type formValues struct {
	PagesOption string
	Pages       string
	Mode        convert.Mode
	OutputName  string
}

type previewView struct {
	Title string
	HTML  template.HTML
}

type pageView struct {
	Form     formValues
	Modes    []convert.Mode
	Message  *convert.Message
	Success  string
	Previews []previewView
	Combined *previewView
	Download template.URL
	FileName string
}

// apiResult is the JSON body of a successful API conversion.
type apiResult struct {
	FileName string                `json:"file_name"`
	Tables   []convert.Preview     `json:"tables"`
	Combined *tables.CombinedTable `json:"combined"`
}

func (s *Server) defaultForm() formValues {
	return formValues{PagesOption: pagesAll, Mode: s.opts.DefaultMode, OutputName: workbook.DefaultBaseName}
}

// parseUpload reads the multipart form into a conversion request. The
// caller closes the returned file.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (convert.Request, formValues, multipart.File, error) {
	form := s.defaultForm()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return convert.Request{}, form, nil, fmt.Errorf("%w: upload exceeds %d MB", errBadInput, s.opts.MaxUploadBytes>>20)
		}
		return convert.Request{}, form, nil, fmt.Errorf("%w: %v", errBadInput, err)
	}

	if v := r.FormValue(fieldPagesOption); v != "" {
		form.PagesOption = v
	}
	form.Pages = strings.TrimSpace(r.FormValue(fieldPages))
	if v, ok := r.MultipartForm.Value[fieldOutputName]; ok && len(v) > 0 {
		form.OutputName = v[0]
	}
	if v := r.FormValue(fieldMode); v != "" {
		mode, err := convert.ParseMode(v)
		if err != nil {
			return convert.Request{}, form, nil, fmt.Errorf("%w: %v", errBadInput, err)
		}
		form.Mode = mode
	}

	pages := extract.AllPages
	switch form.PagesOption {
	case pagesAll:
	case pagesSpecific:
		if form.Pages == "" {
			return convert.Request{}, form, nil, fmt.Errorf("%w: enter the page numbers to convert, for example 1-3, 5, 7", errBadInput)
		}
		pages = form.Pages
	default:
		return convert.Request{}, form, nil, fmt.Errorf("%w: unknown pages option %q", errBadInput, form.PagesOption)
	}

	file, hdr, err := r.FormFile(fieldFile)
	if err != nil {
		return convert.Request{}, form, nil, fmt.Errorf("%w: upload a PDF file", errBadInput)
	}
	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".pdf") {
		file.Close()
		return convert.Request{}, form, nil, fmt.Errorf("%w: %q is not a PDF file", errBadInput, hdr.Filename)
	}

	return convert.Request{
		PDF:        file,
		Pages:      pages,
		Mode:       form.Mode,
		OutputName: form.OutputName,
	}, form, file, nil
}

// convert runs the conversion and records metrics.
func (s *Server) convert(r *http.Request, req convert.Request) (*convert.Response, error) {
	start := time.Now()
	mode := req.Mode.Flavor()
	res, err := s.conv.Convert(r.Context(), req)
	conversionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	log := s.logger.With(zap.String("request_id", requestIDFrom(r.Context())), zap.String("mode", mode))
	switch {
	case err == nil:
		conversions.WithLabelValues(mode, "ok").Inc()
		tablesExtracted.Observe(float64(len(res.Tables)))
		log.Info("conversion succeeded", zap.Int("tables", len(res.Tables)), zap.String("file", res.FileName))
	case errors.Is(err, convert.ErrNoTablesFound):
		conversions.WithLabelValues(mode, "no_tables").Inc()
		log.Info("no tables found")
	default:
		conversions.WithLabelValues(mode, "error").Inc()
		log.Warn("conversion failed", zap.Error(err))
	}
	return res, err
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, pageView{Form: s.defaultForm()})
}

func (s *Server) handleConvertPage(w http.ResponseWriter, r *http.Request) {
	req, form, file, err := s.parseUpload(w, r)
	view := pageView{Form: form}
	if err != nil {
		view.Message = &convert.Message{Level: convert.LevelError, Text: strings.TrimPrefix(err.Error(), errBadInput.Error()+": ")}
		s.renderPage(w, http.StatusBadRequest, view)
		return
	}
	defer file.Close()

	res, err := s.convert(r, req)
	if err != nil {
		msg := convert.Describe(err, form.Mode)
		view.Message = &msg
		s.renderPage(w, http.StatusOK, view)
		return
	}

	view.Success = fmt.Sprintf("Found %d tables.", len(res.Tables))
	for _, p := range res.Tables {
		html, err := s.renderPreview(p.Markdown())
		if err != nil {
			s.logger.Warn("preview rendering failed", zap.Error(err))
			continue
		}
		view.Previews = append(view.Previews, previewView{Title: p.Title(), HTML: template.HTML(html)})
	}
	if html, err := s.renderPreview(res.Combined.Markdown()); err != nil {
		s.logger.Warn("preview rendering failed", zap.Error(err))
	} else {
		view.Combined = &previewView{Title: res.CombinedTitle(), HTML: template.HTML(html)}
	}
	view.FileName = res.FileName
	view.Download = template.URL("data:" + res.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(res.Workbook))
	s.renderPage(w, http.StatusOK, view)
}

func (s *Server) handleConvertAPI(w http.ResponseWriter, r *http.Request) {
	req, form, file, err := s.parseUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": strings.TrimPrefix(err.Error(), errBadInput.Error()+": "),
			"hint":  "check the uploaded file and form fields",
		})
		return
	}
	defer file.Close()

	res, err := s.convert(r, req)
	if err != nil {
		msg := convert.Describe(err, form.Mode)
		writeJSON(w, apiStatus(err), msg)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, apiResult{FileName: res.FileName, Tables: res.Tables, Combined: res.Combined})
		return
	}

	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Workbook)))
	w.Header().Set("X-Tables-Found", strconv.Itoa(len(res.Tables)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Workbook)
}

func apiStatus(err error) int {
	switch {
	case errors.Is(err, convert.ErrNoTablesFound),
		errors.Is(err, tables.ErrSchemaMismatch),
		errors.Is(err, tables.ErrMalformedTable),
		errors.Is(err, tables.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, convert.ErrNoInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, view pageView) {
	view.Modes = []convert.Mode{convert.ModeBordered, convert.ModeText}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		s.logger.Error("template execution failed", zap.Error(err))
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>PDF to Excel Converter</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
td, th { border: 1px solid #ccc; padding: .2rem .5rem; }
.warning { background: #fff4d6; padding: .5rem; }
.error { background: #fde2e1; padding: .5rem; }
.success { background: #e3f6e3; padding: .5rem; }
.hint { color: #555; }
</style>
</head>
<body>
<h1>Automation Converter</h1>
<p>Extract the tables of a PDF into one spreadsheet.</p>

<form method="post" action="/convert" enctype="multipart/form-data">
  <p><label>PDF file <input type="file" name="pdf" accept=".pdf,application/pdf" required></label></p>
  <p>
    <label><input type="radio" name="pages_option" value="all"{{if eq .Form.PagesOption "all"}} checked{{end}}> All pages</label>
    <label><input type="radio" name="pages_option" value="specific"{{if eq .Form.PagesOption "specific"}} checked{{end}}> Specific pages</label>
    <input type="text" name="pages" value="{{.Form.Pages}}" placeholder="e.g. 1-3, 5, 7">
  </p>
  <p>Extraction mode:
    {{- range .Modes}}
    <label><input type="radio" name="mode" value="{{.Flavor}}"{{if eq . $.Form.Mode}} checked{{end}}> {{.Label}}</label>
    {{- end}}
  </p>
  <p><label>Output file name <input type="text" name="output_name" value="{{.Form.OutputName}}"></label> .xlsx</p>
  <p><button type="submit">Convert to Excel</button></p>
</form>

{{with .Message}}
<div class="{{.Level}}">
  <p>{{.Text}}</p>
  {{if .Hint}}<p class="hint">{{.Hint}}</p>{{end}}
</div>
{{end}}

{{if .Success}}
<div class="success"><p>{{.Success}}</p></div>
<h2>Preview</h2>
{{range .Previews}}
<details>
  <summary>{{.Title}}</summary>
  {{.HTML}}
</details>
{{end}}
{{with .Combined}}
<h2>Combined sheet</h2>
<details open>
  <summary>{{.Title}}</summary>
  {{.HTML}}
</details>
{{end}}
<h2>Download</h2>
<p><a href="{{.Download}}" download="{{.FileName}}">Download {{.FileName}}</a></p>
{{end}}
</body>
</html>
`))
