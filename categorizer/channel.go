package categorizer

import (
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
)

// DetectChannel returns the first channel whose keyword appears in the description, or
// OTHER.
func DetectChannel(description string) common.Channel {
	upper := strings.ToUpper(description)
	for _, rule := range channelRules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.channel
			}
		}
	}
	return common.ChannelOther
}
