package explorer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	domain "chess_explorer/internal/domain/explorer"
)

const maxPayloadSize = 4 << 20

type ResponseSaver interface {
	SaveResponse(ctx context.Context, db domain.Source, variant string, resp domain.Response) error
}

// ImportResponses stores explorer payloads read one per line from r. Blank
// lines are skipped; the first malformed payload stops the import.
func ImportResponses(ctx context.Context, saver ResponseSaver, db domain.Source, variant string, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxPayloadSize)

	imported, line := 0, 0
	for scanner.Scan() {
		line++
		payload := bytes.TrimSpace(scanner.Bytes())
		if len(payload) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		resp, err := domain.DecodeResponse(payload)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if resp.Position() == "" {
			return imported, fmt.Errorf("line %d: payload has no fen", line)
		}
		if err = saver.SaveResponse(ctx, db, variant, resp); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("failed to read payloads: %w", err)
	}
	return imported, nil
}
