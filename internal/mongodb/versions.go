package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"drivevault/internal/services"
)

// SaveVersionMetadata upserts the description entry for one revision. A
// revision id that already has an entry gets it replaced in place, so
// repeated saves never accumulate duplicates.
func (s *Store) SaveVersionMetadata(ctx context.Context, fileID, revisionID, revisionName, description string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// Replace in place when the revision already has an entry.
	res, err := s.revisions.UpdateOne(ctx,
		bson.M{"file_id": fileID, "versions.id": revisionID},
		bson.M{"$set": bson.M{
			"versions.$.name":        revisionName,
			"versions.$.description": description,
		}},
	)
	if err != nil {
		return services.NewMetadataError("save version metadata", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Otherwise append, creating the file document if absent.
	_, err = s.revisions.UpdateOne(ctx,
		bson.M{"file_id": fileID},
		bson.M{
			"$setOnInsert": bson.M{"description": description},
			"$push": bson.M{"versions": versionEntry{
				ID:          revisionID,
				Name:        revisionName,
				Description: description,
			}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return services.NewMetadataError("save version metadata", err)
	}

	s.logger.Debug("version metadata saved",
		zap.String("file_id", fileID),
		zap.String("revision_id", revisionID),
	)
	return nil
}

// GetVersionMetadata returns the stored description of a revision, reporting
// absence separately from errors.
func (s *Store) GetVersionMetadata(ctx context.Context, fileID, revisionID string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc revisionDoc
	err := s.revisions.FindOne(ctx,
		bson.M{"file_id": fileID, "versions.id": revisionID},
		options.FindOne().SetProjection(bson.M{"versions.$": 1}),
	).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return "", false, nil
		}
		return "", false, services.NewMetadataError("get version metadata", err)
	}
	if len(doc.Versions) == 0 {
		return "", false, nil
	}
	return doc.Versions[0].Description, true, nil
}

// DeleteVersionMetadata removes one revision's entry from its file document.
// Deleting an entry that is already gone is not an error.
func (s *Store) DeleteVersionMetadata(ctx context.Context, fileID, revisionID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.revisions.UpdateOne(ctx,
		bson.M{"file_id": fileID},
		bson.M{"$pull": bson.M{"versions": bson.M{"id": revisionID}}},
	)
	if err != nil {
		return services.NewMetadataError("delete version metadata", err)
	}
	if res.ModifiedCount == 0 {
		s.logger.Debug("version metadata not found or already deleted",
			zap.String("file_id", fileID),
			zap.String("revision_id", revisionID),
		)
	}
	return nil
}
