package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
)

const maxNoteLength = 200

// NoteService - боковая панель заметок к страницам
// Одна заметка на пару (user_id, page_id), хранится в MongoDB
type NoteService struct {
	noteRepo repository.NoteRepository
}

// NewNoteService создает новый сервис заметок
func NewNoteService(noteRepo repository.NoteRepository) *NoteService {
	return &NoteService{noteRepo: noteRepo}
}

// Load возвращает заметку пользователя к странице
// Отсутствие заметки - нормальный случай: возвращается пустая заметка
func (s *NoteService) Load(ctx context.Context, userID, pageID string) (*entity.PageNote, error) {
	note, err := s.noteRepo.Get(ctx, userID, pageID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return &entity.PageNote{UserID: userID, PageID: pageID}, nil
		}
		return nil, fmt.Errorf("failed to load note: %w", err)
	}
	return note, nil
}

// Save сохраняет заметку пользователя к странице
// Текст обрезается по краям; пустой текст эквивалентен удалению
func (s *NoteService) Save(ctx context.Context, userID, pageID, text string) (*entity.PageNote, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		if err := s.Delete(ctx, userID, pageID); err != nil {
			return nil, err
		}
		return &entity.PageNote{UserID: userID, PageID: pageID}, nil
	}

	if utf8.RuneCountInString(text) > maxNoteLength {
		return nil, ErrNoteTooLong
	}

	note := &entity.PageNote{
		UserID:    userID,
		PageID:    pageID,
		Text:      text,
		UpdatedAt: time.Now(),
	}
	if err := s.noteRepo.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

// Delete удаляет заметку; отсутствие заметки не считается ошибкой
func (s *NoteService) Delete(ctx context.Context, userID, pageID string) error {
	if err := s.noteRepo.Delete(ctx, userID, pageID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
