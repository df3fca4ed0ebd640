// Package activity collects open to-dos and recent discussion activity from Basecamp.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/basecamp"
	"github.com/benvon/dashcollect/internal/logger"
	"github.com/benvon/dashcollect/internal/models"
	"github.com/benvon/dashcollect/internal/output"
	"github.com/benvon/dashcollect/internal/recency"
)

const (
	tracerName = "github.com/benvon/dashcollect/internal/activity"

	// maxTopicPages bounds topic paging per project.
	maxTopicPages = 1000
)

// API is the subset of the Basecamp API the collector reads.
type API interface {
	Projects(ctx context.Context) ([]models.Project, error)
	TodoLists(ctx context.Context, projectID int64) ([]models.TodoList, error)
	TodoList(ctx context.Context, projectID, listID int64) (*models.TodoListDetail, error)
	Topics(ctx context.Context, projectID int64, page int) ([]models.Topic, error)
	Comments(ctx context.Context, projectID int64, topic models.Topic) ([]models.Comment, error)
}

// Options tunes discussion scanning.
type Options struct {
	// AssumeSorted enables early exit on the first out-of-window topic or comment.
	AssumeSorted bool
	// PageSize is the API's topic page size. A shorter page is the last one.
	// Zero disables paging.
	PageSize int
}

// Stats summarises a collection run.
type Stats struct {
	Projects        int
	TodoLists       int
	Todos           int
	TopicsEvaluated int
	Threads         int
	Comments        int
	SkippedThreads  int
}

// Collector builds an ActivityReport from the API.
type Collector struct {
	api    API
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCollector returns a collector reading from api.
func NewCollector(api API, opts Options, zapLogger *zap.Logger) *Collector {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Collector{
		api:    api,
		opts:   opts,
		logger: zapLogger,
		tracer: otel.Tracer(tracerName),
	}
}

// Run collects the report and writes it to outputPath. Nothing is written when
// collection fails.
func (c *Collector) Run(ctx context.Context, w recency.Window, outputPath string) (Stats, error) {
	report, stats, err := c.Collect(ctx, w)
	if err != nil {
		return stats, err
	}
	if err := output.WriteJSON(outputPath, report); err != nil {
		return stats, err
	}
	c.logger.Info("activity_report_written", zap.String("path", outputPath))
	return stats, nil
}

// Collect walks every project: all remaining to-dos of every list, and comments
// inside the window on topics inside the window.
func (c *Collector) Collect(ctx context.Context, w recency.Window) (*models.ActivityReport, Stats, error) {
	ctx, span := c.tracer.Start(ctx, "activity.collect")
	defer span.End()

	start := time.Now()
	var stats Stats
	report := models.NewActivityReport()

	c.logger.Info("activity_collection_started",
		zap.Time("window_end", w.Now()),
		zap.Duration("window", w.Span()),
		zap.Bool("assume_sorted", c.opts.AssumeSorted),
	)

	projects, err := c.api.Projects(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, stats, fmt.Errorf("failed to list projects: %w", err)
	}

	for _, project := range projects {
		if err := c.collectProject(ctx, w, project, report, &stats); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, stats, err
		}
		stats.Projects++
	}

	span.SetAttributes(
		attribute.Int("activity.projects", stats.Projects),
		attribute.Int("activity.threads", stats.Threads),
	)
	c.logger.Info("activity_collection_completed",
		zap.Int("projects", stats.Projects),
		zap.Int("todo_lists", stats.TodoLists),
		zap.Int("todos", stats.Todos),
		zap.Int("topics_evaluated", stats.TopicsEvaluated),
		zap.Int("threads", stats.Threads),
		zap.Int("comments", stats.Comments),
		zap.Int("skipped_threads", stats.SkippedThreads),
		zap.Duration("duration", time.Since(start)),
	)
	return report, stats, nil
}

func (c *Collector) collectProject(ctx context.Context, w recency.Window, project models.Project, report *models.ActivityReport, stats *Stats) error {
	ctx, span := c.tracer.Start(ctx, "activity.project",
		trace.WithAttributes(attribute.Int64("basecamp.project_id", project.ID)))
	defer span.End()

	c.logger.Debug("collecting_project", zap.Int64("project_id", project.ID), zap.String("project", project.Name))

	todos := make(map[string][]models.TodoEntry)
	discussions := make(map[string][]models.CommentEntry)
	report.Todos[project.Name] = todos
	report.Discussions[project.Name] = discussions

	lists, err := c.api.TodoLists(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to list to-do lists of project %d: %w", project.ID, err)
	}
	for _, list := range lists {
		detail, err := c.api.TodoList(ctx, project.ID, list.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch to-do list %d of project %d: %w", list.ID, project.ID, err)
		}
		entries := make([]models.TodoEntry, 0, len(detail.Todos.Remaining))
		for _, todo := range detail.Todos.Remaining {
			entries = append(entries, models.TodoEntry{Content: todo.Content, DueOn: todo.DueOn})
		}
		todos[list.Name] = entries
		stats.TodoLists++
		stats.Todos += len(entries)
	}

	return c.collectDiscussions(ctx, w, project, discussions, stats)
}

func (c *Collector) collectDiscussions(ctx context.Context, w recency.Window, project models.Project, discussions map[string][]models.CommentEntry, stats *Stats) error {
	var prevFirst int64
	for page := 1; ; page++ {
		if page > maxTopicPages {
			return fmt.Errorf("project %d: topic paging exceeded %d pages", project.ID, maxTopicPages)
		}
		topics, err := c.api.Topics(ctx, project.ID, page)
		if err != nil {
			return fmt.Errorf("failed to list topics of project %d: %w", project.ID, err)
		}
		// A server that ignores the page parameter returns the first page again.
		if page > 1 && len(topics) > 0 && topics[0].ID == prevFirst {
			c.logger.Warn("topic_page_repeated",
				zap.Int64("project_id", project.ID),
				zap.Int("page", page),
				zap.Int64("topic_id", prevFirst),
			)
			return nil
		}
		if len(topics) > 0 {
			prevFirst = topics[0].ID
		}

		recent, res, err := recency.Select(w, topics, c.opts.AssumeSorted, func(t models.Topic) string { return t.UpdatedAt })
		if err != nil {
			return fmt.Errorf("project %d topics: %w", project.ID, err)
		}
		stats.TopicsEvaluated += res.Evaluated
		c.reportOrder(res, zap.Int64("project_id", project.ID), zap.Int("page", page))

		for _, topic := range recent {
			if err := c.collectThread(ctx, w, project, topic, discussions, stats); err != nil {
				return err
			}
		}

		if res.Stopped || c.opts.PageSize <= 0 || len(topics) < c.opts.PageSize {
			return nil
		}
	}
}

func (c *Collector) collectThread(ctx context.Context, w recency.Window, project models.Project, topic models.Topic, discussions map[string][]models.CommentEntry, stats *Stats) error {
	entries := []models.CommentEntry{}
	discussions[topic.Title] = entries
	stats.Threads++

	comments, err := c.api.Comments(ctx, project.ID, topic)
	if err != nil {
		if basecamp.IsUnavailableThread(err) {
			stats.SkippedThreads++
			c.logger.Warn("discussion_thread_unavailable",
				zap.Int64("project_id", project.ID),
				zap.Int64("topic_id", topic.ID),
				zap.String("error", logger.SanitizeError(err)),
			)
			return nil
		}
		return fmt.Errorf("failed to fetch comments of topic %d in project %d: %w", topic.ID, project.ID, err)
	}

	recent, res, err := recency.Select(w, comments, c.opts.AssumeSorted, func(cm models.Comment) string { return cm.UpdatedAt })
	if err != nil {
		return fmt.Errorf("topic %d comments: %w", topic.ID, err)
	}
	c.reportOrder(res, zap.Int64("project_id", project.ID), zap.Int64("topic_id", topic.ID))

	for _, cm := range recent {
		entries = append(entries, models.CommentEntry{Content: cm.Content, UpdatedAt: cm.UpdatedAt})
	}
	discussions[topic.Title] = entries
	stats.Comments += len(entries)
	c.logger.Debug("discussion_thread_collected",
		zap.Int64("topic_id", topic.ID),
		zap.String("title", logger.SanitizeContent(topic.Title)),
		zap.Int("comments", len(entries)),
	)
	return nil
}

// reportOrder flags input that breaks the newest-first precondition. Early exit
// may have skipped in-window items in that case.
func (c *Collector) reportOrder(res recency.Result, fields ...zap.Field) {
	if res.OrderViolations == 0 {
		return
	}
	fields = append(fields, zap.Int("violations", res.OrderViolations))
	if c.opts.AssumeSorted {
		c.logger.Warn("recency_order_violation", fields...)
		return
	}
	c.logger.Debug("recency_order_violation", fields...)
}
