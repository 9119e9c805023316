package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"drivevault/internal/models"
	"drivevault/internal/services"
)

// ListComments returns the stored comment thread of a (file, revision) pair
// in insertion order. A missing file or version yields an empty list.
func (s *Store) ListComments(ctx context.Context, fileID, revisionID string) ([]models.Comment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc commentDoc
	err := s.comments.FindOne(ctx, bson.M{"id": fileID, "versions.id": revisionID}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return []models.Comment{}, nil
		}
		return nil, services.NewMetadataError("list comments", err)
	}

	for _, version := range doc.Versions {
		if version.ID == revisionID {
			if version.Comments == nil {
				return []models.Comment{}, nil
			}
			return version.Comments, nil
		}
	}
	return []models.Comment{}, nil
}

// GetComment locates one comment by id within the (file, revision) scope.
func (s *Store) GetComment(ctx context.Context, fileID, revisionID, commentID string) (*models.Comment, error) {
	comments, err := s.ListComments(ctx, fileID, revisionID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if comments[i].ID == commentID {
			return &comments[i], nil
		}
	}
	return nil, services.NewNotFoundError("comment not found")
}

// CreateComment stores a new top-level comment, creating the file document
// and version entry lazily at whichever level is missing.
func (s *Store) CreateComment(ctx context.Context, fileID, revisionID, revisionName string, comment *models.Comment) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if comment.ID == "" {
		comment.ID = primitive.NewObjectID().Hex()
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}

	// Version entry exists: append to its comments array.
	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID},
		bson.M{"$push": bson.M{"versions.$.comments": comment}},
	)
	if err != nil {
		return services.NewMetadataError("create comment", err)
	}
	if res.ModifiedCount > 0 {
		s.logComment("comment created", fileID, revisionID, comment.ID)
		return nil
	}

	// File doc exists but the version entry does not: add the version.
	res, err = s.comments.UpdateOne(ctx,
		bson.M{"id": fileID},
		bson.M{"$push": bson.M{"versions": commentVersionEntry{
			ID:       revisionID,
			Name:     revisionName,
			Comments: []models.Comment{*comment},
		}}},
	)
	if err != nil {
		return services.NewMetadataError("create comment", err)
	}
	if res.ModifiedCount > 0 {
		s.logComment("comment created", fileID, revisionID, comment.ID)
		return nil
	}

	// Nothing exists for this file yet: create the whole document.
	_, err = s.comments.InsertOne(ctx, commentDoc{
		FileID: fileID,
		Versions: []commentVersionEntry{{
			ID:       revisionID,
			Name:     revisionName,
			Comments: []models.Comment{*comment},
		}},
	})
	if err != nil {
		return services.NewMetadataError("create comment", err)
	}
	s.logComment("comment created", fileID, revisionID, comment.ID)
	return nil
}

// UpdateCommentContent replaces the content of one comment.
func (s *Store) UpdateCommentContent(ctx context.Context, fileID, revisionID, commentID, content string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID, "versions.comments.id": commentID},
		bson.M{"$set": bson.M{"versions.$[version].comments.$[comment].content": content}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"version.id": revisionID},
			bson.M{"comment.id": commentID},
		}}),
	)
	if err != nil {
		return services.NewMetadataError("update comment content", err)
	}
	if res.MatchedCount == 0 {
		return services.NewNotFoundError("comment not found")
	}
	return nil
}

// DeleteComment removes one comment, replies included, from its version.
func (s *Store) DeleteComment(ctx context.Context, fileID, revisionID, commentID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID},
		bson.M{"$pull": bson.M{"versions.$.comments": bson.M{"id": commentID}}},
	)
	if err != nil {
		return services.NewMetadataError("delete comment", err)
	}
	if res.ModifiedCount == 0 {
		return services.NewNotFoundError("comment not found")
	}
	s.logComment("comment deleted", fileID, revisionID, commentID)
	return nil
}

// SetCommentResolved sets the resolved flag of one comment. Setting the flag
// to its current value matches the document but modifies nothing, which is
// the idempotent outcome callers expect.
func (s *Store) SetCommentResolved(ctx context.Context, fileID, revisionID, commentID string, resolved bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID, "versions.comments.id": commentID},
		bson.M{"$set": bson.M{"versions.$[version].comments.$[comment].resolved": resolved}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"version.id": revisionID},
			bson.M{"comment.id": commentID},
		}}),
	)
	if err != nil {
		return services.NewMetadataError("update comment resolved status", err)
	}
	if res.MatchedCount == 0 {
		return services.NewNotFoundError("comment not found")
	}
	return nil
}

// CreateReply appends a reply to the thread of an existing comment.
func (s *Store) CreateReply(ctx context.Context, fileID, revisionID, commentID string, reply *models.Reply) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if reply.ID == "" {
		reply.ID = primitive.NewObjectID().Hex()
	}

	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID, "versions.comments.id": commentID},
		bson.M{"$push": bson.M{"versions.$[version].comments.$[comment].replies": reply}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"version.id": revisionID},
			bson.M{"comment.id": commentID},
		}}),
	)
	if err != nil {
		return services.NewMetadataError("create reply", err)
	}
	if res.MatchedCount == 0 {
		return services.NewNotFoundError("comment not found")
	}
	s.logComment("reply created", fileID, revisionID, commentID)
	return nil
}

// GetReply locates a reply by id alone within the (file, revision) scope.
func (s *Store) GetReply(ctx context.Context, fileID, revisionID, replyID string) (*models.Reply, error) {
	comments, err := s.ListComments(ctx, fileID, revisionID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		for j := range comments[i].Replies {
			if comments[i].Replies[j].ID == replyID {
				return &comments[i].Replies[j], nil
			}
		}
	}
	return nil, services.NewNotFoundError("reply not found")
}

// DeleteReply removes a reply by id alone, from whichever comment in the
// (file, revision) scope holds it.
func (s *Store) DeleteReply(ctx context.Context, fileID, revisionID, replyID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.comments.UpdateOne(ctx,
		bson.M{"id": fileID, "versions.id": revisionID, "versions.comments.replies.id": replyID},
		bson.M{"$pull": bson.M{"versions.$[version].comments.$[].replies": bson.M{"id": replyID}}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"version.id": revisionID},
		}}),
	)
	if err != nil {
		return services.NewMetadataError("delete reply", err)
	}
	if res.ModifiedCount == 0 {
		return services.NewNotFoundError("reply not found")
	}
	s.logComment("reply deleted", fileID, revisionID, replyID)
	return nil
}

func (s *Store) logComment(msg, fileID, revisionID, id string) {
	s.logger.Debug(msg,
		zap.String("file_id", fileID),
		zap.String("revision_id", revisionID),
		zap.String("id", id),
	)
}
