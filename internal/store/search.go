package store

import (
	"context"
	"fmt"
	"strings"
)

// likeEscaper neutralizes LIKE metacharacters so the query matches them
// as literal text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchChats finds chats whose title or message bodies contain the query
// (case-insensitive substring), most recently updated first. Each result
// carries the number of matching messages and whether the title itself
// matched. Callers are expected to treat an empty query as "not
// searching" and skip the call entirely.
func (s *Store) SearchChats(ctx context.Context, query string) ([]SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	q = escapeLike(q)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chatCols+`,
		     lower(title) LIKE '%' || ? || '%' ESCAPE '\' AS title_match,
		     (SELECT COUNT(*) FROM messages m
		      WHERE m.chat_id = chats.chat_id
		        AND (lower(m.user_msg) LIKE '%' || ? || '%' ESCAPE '\'
		             OR lower(m.ai_response) LIKE '%' || ? || '%' ESCAPE '\')) AS match_count
		 FROM chats
		 WHERE lower(title) LIKE '%' || ? || '%' ESCAPE '\'
		    OR EXISTS (SELECT 1 FROM messages m
		               WHERE m.chat_id = chats.chat_id
		                 AND (lower(m.user_msg) LIKE '%' || ? || '%' ESCAPE '\'
		                      OR lower(m.ai_response) LIKE '%' || ? || '%' ESCAPE '\'))
		 ORDER BY updated_at DESC`,
		q, q, q, q, q, q)
	if err != nil {
		return nil, fmt.Errorf("searching chats: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r          SearchResult
			titleMatch bool
		)
		err := rows.Scan(&r.Chat.ID, &r.Chat.Title, &r.Chat.UserID,
			&r.Chat.CreatedAt, &r.Chat.UpdatedAt, &titleMatch, &r.MatchCount)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if titleMatch {
			r.MatchType = MatchTitle
		} else {
			r.MatchType = MatchContent
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}
