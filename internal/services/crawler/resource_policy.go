package crawler

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// blockedResourceTypes never contribute readable text
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeMedia:      true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeStylesheet: true,
}

// ShouldBlockResource reports whether a sub-request of the given type is aborted
func ShouldBlockResource(resourceType network.ResourceType) bool {
	return blockedResourceTypes[resourceType]
}

// EnableResourceBlocking pauses every request in the tab and aborts those
// whose resource type is image, media, font or stylesheet. Document, script
// and XHR requests continue untouched.
func EnableResourceBlocking(tabCtx context.Context, logger arbor.ILogger) error {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}

		// Listener callbacks must not block; answer from a goroutine
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)

			var err error
			if ShouldBlockResource(paused.ResourceType) {
				err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				err = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
			}
			if err != nil && tabCtx.Err() == nil {
				logger.Debug().
					Err(err).
					Str("resource_type", string(paused.ResourceType)).
					Msg("Failed to resolve paused request")
			}
		}()
	})

	return chromedp.Run(tabCtx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}))
}
