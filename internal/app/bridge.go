package app

import (
	"context"
	"fmt"

	"github.com/coursepaw/syllakit/internal/page"
	"github.com/coursepaw/syllakit/internal/router"
)

// routerBridge adapts the message router to the workflow's Bridge interface.
// It is the only path from the popup to the content context.
type routerBridge struct {
	r *router.Router
}

func (b *routerBridge) ExtractPage(ctx context.Context, tabID int) (*page.Snapshot, error) {
	res, err := b.r.Dispatch(ctx, router.Message{Type: router.TypeExtractPage, TabID: tabID})
	if err != nil {
		return nil, err
	}
	reply, ok := res.(*ExtractReply)
	if !ok || reply.Snapshot == nil {
		return nil, fmt.Errorf("extract page: unexpected reply %T", res)
	}
	return reply.Snapshot, nil
}

func (b *routerBridge) HighlightText(ctx context.Context, tabID int, text string) int {
	res, err := b.r.Dispatch(ctx, router.Message{
		Type:    router.TypeHighlightText,
		TabID:   tabID,
		Payload: router.HighlightPayload{Text: text},
	})
	if err != nil {
		return 0
	}
	count, _ := res.(int)
	return count
}

func (b *routerBridge) ClearHighlights(ctx context.Context, tabID int) {
	_, _ = b.r.Dispatch(ctx, router.Message{Type: router.TypeClearHighlights, TabID: tabID})
}

func (b *routerBridge) OpenApp(ctx context.Context, syllabusID, view string) error {
	_, err := b.r.Dispatch(ctx, router.Message{
		Type:    router.TypeOpenApp,
		Payload: router.OpenAppPayload{SyllabusID: syllabusID, View: view},
	})
	return err
}
