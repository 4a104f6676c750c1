package resumes

import "time"

// applyUserWrite implements the completion lock for the single user version.
//
//	none stored        -> create, is_complete from input (default false)
//	stored, incomplete -> overwrite content, mark complete
//	stored, complete   -> ErrVersionLocked
func applyUserWrite(existing *ResumeDocument, userID, newID string, content map[string]any, in UserVersionInput, now time.Time) (ResumeDocument, error) {
	if existing == nil {
		complete := false
		if in.IsComplete != nil {
			complete = *in.IsComplete
		}
		status := in.Status
		if status == "" {
			status = StatusPending
		}
		return ResumeDocument{
			ID:      newID,
			Content: content,
			Metadata: Metadata{
				VersionType: VersionUser,
				UserID:      userID,
				ResumeID:    newID,
				CreatedAt:   now,
				LastUpdated: now,
				IsComplete:  complete,
				Status:      status,
				Industry:    in.Industry,
				ModelInfo:   in.ModelInfo,
			},
		}, nil
	}

	if existing.Metadata.IsComplete {
		return ResumeDocument{}, ErrVersionLocked
	}
	next := *existing
	next.Content = content
	next.Metadata.IsComplete = true
	next.Metadata.LastUpdated = now
	if in.Status != "" {
		next.Metadata.Status = in.Status
	}
	if in.Industry != "" {
		next.Metadata.Industry = in.Industry
	}
	if in.ModelInfo != nil {
		next.Metadata.ModelInfo = in.ModelInfo
	}
	return next, nil
}
