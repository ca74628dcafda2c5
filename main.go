package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/walter-ryan/portfolio/internal/content"
	"github.com/walter-ryan/portfolio/internal/projects"
	"github.com/walter-ryan/portfolio/internal/store"
	"github.com/walter-ryan/portfolio/internal/timeline"
)

//go:embed templates/*.html
var templateFS embed.FS

type server struct {
	cfg      Config
	site     *content.Site
	pages    *projects.PageViews
	store    *store.Store
	registry *prometheus.Registry
	admin    *adminAuth
	sendMail func(SMTPConfig, contactMessage) error

	// firstPaint is how long a page render waits for its cards before
	// sending them in the loading state.
	firstPaint time.Duration
}

const (
	defaultFirstPaint = 400 * time.Millisecond
	maxMeasureBody    = 64 << 10
	maxTimelineItems  = 256
)

func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site, err := content.Load(cfg.ContentFile)
	if err != nil {
		log.Fatal("Failed to load site content:", err)
	}

	st, err := store.Open(cfg.DatabasePath, generateToken())
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	github := projects.NewGitHubClient(cfg.GitHubAPIURL, cfg.GitHubTimeout)
	pages := projects.NewPageViews(ctx, github, projects.DefaultViewTTL, projects.WithMetrics(projects.NewMetrics(registry)))

	s := &server{
		cfg:      cfg,
		site:     site,
		pages:      pages,
		store:      st,
		registry:   registry,
		admin:      newAdminAuth(cfg),
		sendMail:   sendContactEmail,
		firstPaint: defaultFirstPaint,
	}

	go s.runVisitorCleanup(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Portfolio running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"textClass":   func(color string) string { return timeline.Colors[color].Text },
		"markerClass": func(color string) string { return timeline.Colors[color].Marker },
		"px":          px,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "px"
}

func (s *server) routes() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(newTemplates())

	r.Static("/static", "./static")
	r.Use(s.visitorTrackingMiddleware())

	// Full page
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"hero":    s.site.Hero,
			"cards":   s.openCards(c.Request.Context()),
			"career":  s.career(),
			"skills":  s.site.Skills,
			"tools":   s.site.Tools,
			"contact": s.site.Contact,
		})
	})

	// HTMX: a single project card of one page view, polled until it settles
	r.GET("/projects/:view/:slot", func(c *gin.Context) {
		token := c.Param("view")
		board, ok := s.pages.Lookup(token)
		if !ok {
			c.String(http.StatusNotFound, "unknown project")
			return
		}
		slot, err := strconv.Atoi(c.Param("slot"))
		if err != nil {
			c.String(http.StatusNotFound, "unknown project")
			return
		}
		view, ok := board.View(slot)
		if !ok {
			c.String(http.StatusNotFound, "unknown project")
			return
		}
		if !view.Loading() {
			s.pages.Delivered(token, slot)
		}
		c.HTML(http.StatusOK, "project-card.html", projectCard{Token: token, Slot: slot, View: view})
	})

	// HTMX: career timeline with markers placed from the estimated layout
	r.GET("/career", func(c *gin.Context) {
		c.HTML(http.StatusOK, "career.html", s.career())
	})

	// Browser-reported geometry, posted after layout and on resize
	r.POST("/career/measure", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMeasureBody)

		var layout timeline.MeasuredLayout
		if err := c.ShouldBindJSON(&layout); err != nil || len(layout.Entries) > maxTimelineItems {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid layout"})
			return
		}

		var m timeline.Measurer
		if !m.Measure(layout) {
			c.JSON(http.StatusOK, gin.H{"measured": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"measured": true, "offsets": m.Offsets()})
	})

	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title":   "Contact Me",
			"contact": s.site.Contact,
		})
	})

	r.POST("/contact", s.handleContact)

	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.setupAdminRoutes(r)
	return r
}

type projectCard struct {
	Token string
	Slot  int
	View  projects.View
}

// openCards starts a fresh set of cards for one page render. Cards that
// settle within firstPaint are rendered final; the rest poll by token.
func (s *server) openCards(ctx context.Context) []projectCard {
	token, board := s.pages.Open(s.site.ProjectSpecs())

	waitCtx, cancel := context.WithTimeout(ctx, s.firstPaint)
	defer cancel()
	// Cards still loading after the timeout poll by token instead.
	_ = board.Wait(waitCtx)

	views := board.Views()
	if len(views) == 0 {
		s.pages.Release(token)
	}
	cards := make([]projectCard, len(views))
	for i, v := range views {
		if !v.Loading() {
			s.pages.Delivered(token, i)
		}
		cards[i] = projectCard{Token: token, Slot: i, View: v}
	}
	return cards
}

type careerItem struct {
	timeline.Entry
	Offset    float64
	HasOffset bool
}

func (s *server) career() []careerItem {
	var m timeline.Measurer
	m.Measure(timeline.EstimatedLayout{Entries: s.site.Career})

	items := make([]careerItem, len(s.site.Career))
	for i, e := range s.site.Career {
		items[i].Entry = e
		items[i].Offset, items[i].HasOffset = m.Offset(i)
	}
	return items
}

func (s *server) runVisitorCleanup(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		s.purgeOldVisits()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *server) purgeOldVisits() {
	n, err := s.store.PurgeBefore(time.Now().Add(-store.Retention))
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", n)
	}
}
