// Package logging holds the slog helpers shared across outplan.
//
// It defines the attribute keys used by every component, so a grep for
// operation=, team=, or user_hash= finds all related log lines, and the
// constructors that keep those keys consistent:
//
//	logger := logging.WithOperation(slog.Default(), "store.join_team")
//	logger.Info("user joined team",
//	    logging.Team(code),
//	    logging.UserHash(userID),
//	    logging.Err(err))
//
// User ids come from the chat platform and are treated as PII. UserHash and
// AnonymizeUserID log a truncated sha256 of the id instead of the raw value,
// which still lets entries for one user be correlated across components.
package logging
