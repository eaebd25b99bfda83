package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/database"
	"github.com/exitprep/exitprep-backend/internal/logger"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
)

// examFile is the on-disk JSON shape for one exam and its questions.
type examFile struct {
	Title            string `json:"title"`
	Subject          string `json:"subject"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	Questions        []struct {
		QuestionText  string                     `json:"question_text"`
		Options       model.QuestionOptions      `json:"options"`
		CorrectAnswer string                     `json:"correct_answer"`
		AnswerSource  string                     `json:"answer_source"`
		Explanation   *model.QuestionExplanation `json:"explanation"`
		Topic         string                     `json:"topic"`
		Difficulty    string                     `json:"difficulty"`
	} `json:"questions"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seed-exams <exam.json> [exam.json ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	for _, path := range flag.Args() {
		if err := seedFile(ctx, examRepo, questionRepo, path); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Seed failed")
		}
	}
}

func seedFile(
	ctx context.Context,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	path string,
) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var file examFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse file: %w", err)
	}
	if file.Title == "" {
		return fmt.Errorf("exam title is required")
	}
	if len(file.Questions) == 0 {
		return fmt.Errorf("exam has no questions")
	}

	exam := &model.Exam{
		Title:            file.Title,
		Subject:          file.Subject,
		TotalQuestions:   len(file.Questions),
		TimeLimitMinutes: file.TimeLimitMinutes,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	questions := make([]model.Question, 0, len(file.Questions))
	for i, fq := range file.Questions {
		label, err := normalizeCorrectAnswer(fq.Options, fq.CorrectAnswer)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, model.Question{
			ExamID:        exam.ID,
			QuestionText:  fq.QuestionText,
			Options:       fq.Options,
			CorrectAnswer: label,
			AnswerSource:  fq.AnswerSource,
			Explanation:   fq.Explanation,
			Topic:         fq.Topic,
			Difficulty:    fq.Difficulty,
		})
	}

	if err := questionRepo.CreateBatch(ctx, questions); err != nil {
		return fmt.Errorf("create questions: %w", err)
	}

	fmt.Printf("Seeded exam '%s' (%s) with %d questions\n", exam.Title, exam.ID, len(questions))
	return nil
}

// normalizeCorrectAnswer converts an answer key entry to label form ("A".."D").
// Stored data accepts either a label or the literal option text; new imports
// are normalized so only the label form enters the database.
func normalizeCorrectAnswer(opts model.QuestionOptions, answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("correct_answer is required")
	}

	upper := strings.ToUpper(answer)
	if _, ok := opts.Text(upper); ok && len(upper) == 1 {
		return upper, nil
	}

	for _, label := range model.OptionLabels {
		text, _ := opts.Text(label)
		if strings.EqualFold(text, answer) {
			return label, nil
		}
	}
	return "", fmt.Errorf("correct_answer %q matches no option label or text", answer)
}
