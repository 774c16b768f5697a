package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cedarworks/internal/app/erp/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type noteRepository struct {
	collection *mongo.Collection
}

// NewNoteRepository создает новый репозиторий заметок к страницам
// Автоматически создает уникальный составной индекс (user_id, page_id) -
// на пару не больше одной заметки
func NewNoteRepository(db *mongo.Database) NoteRepository {
	collection := db.Collection("page_notes")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "page_id", Value: 1},
		},
		Options: options.Index().SetName("user_page_idx").SetUnique(true),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс мог быть создан ранее - работу не прерываем
		fmt.Printf("Warning: failed to create index on (user_id, page_id): %v\n", err)
	}

	return &noteRepository{collection: collection}
}

// Get получает заметку пользователя к странице
func (r *noteRepository) Get(ctx context.Context, userID, pageID string) (*entity.PageNote, error) {
	filter := bson.M{"user_id": userID, "page_id": pageID}

	var note entity.PageNote
	err := r.collection.FindOne(ctx, filter).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

// Upsert создает или заменяет заметку
func (r *noteRepository) Upsert(ctx context.Context, note *entity.PageNote) error {
	note.UpdatedAt = time.Now()

	filter := bson.M{"user_id": note.UserID, "page_id": note.PageID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, note, opts); err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

// Delete удаляет заметку
func (r *noteRepository) Delete(ctx context.Context, userID, pageID string) error {
	filter := bson.M{"user_id": userID, "page_id": pageID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}
