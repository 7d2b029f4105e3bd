package words

import (
	"fmt"
	"strings"

	"github.com/scrawlparty/scrawlparty-backend/internal/utils"
)

// fallbackPool is the deterministic local word list used whenever the
// suggestion service fails or returns garbage.
var fallbackPool = []string{
	"apple", "banana", "bridge", "butterfly", "castle", "cloud",
	"dolphin", "dragon", "elephant", "engine", "forest", "guitar",
	"hammer", "helicopter", "island", "jacket", "kangaroo", "ladder",
	"lighthouse", "mountain", "mushroom", "octopus", "penguin", "piano",
	"pirate", "pyramid", "rainbow", "robot", "rocket", "sandwich",
	"scissors", "snowman", "spider", "submarine", "sunflower", "telescope",
	"tornado", "tractor", "treasure", "trumpet", "turtle", "umbrella",
	"unicorn", "volcano", "waffle", "whale", "windmill", "wizard",
	"zebra", "anchor", "balloon", "campfire", "dinosaur", "firework",
}

// seedWords back the numbered-suffix top-up path when the pool itself is
// exhausted by the exclusion set.
var seedWords = []string{"cat", "sun", "boat", "tree", "fish"}

// FallbackWords always produces exactly count distinct candidates honoring
// the exclusion set and maxLength. This path must never come up short: when
// the shuffled pool runs dry it tops up with numbered variants of the seed
// set ("cat2", "sun2", ...), which are unbounded.
func FallbackWords(excluded []string, count, maxLength int) []string {
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, w := range excluded {
		excludedSet[strings.ToLower(w)] = struct{}{}
	}

	pool := make([]string, len(fallbackPool))
	copy(pool, fallbackPool)
	utils.Shuffle(pool)

	chosen := make([]string, 0, count)
	pick := func(w string) bool {
		lower := strings.ToLower(w)
		if _, used := excludedSet[lower]; used {
			return false
		}
		if maxLength > 0 && len([]rune(w)) > maxLength {
			return false
		}
		chosen = append(chosen, w)
		excludedSet[lower] = struct{}{}
		return true
	}

	for _, w := range pool {
		if len(chosen) == count {
			return chosen
		}
		pick(w)
	}

	// Pool exhausted: numbered-suffix variants of the seed set. These skip
	// the maxLength filter; a tight limit must not starve the supply, and
	// the loop has to terminate for every input.
	for suffix := 2; len(chosen) < count; suffix++ {
		for _, seed := range seedWords {
			if len(chosen) == count {
				break
			}
			w := fmt.Sprintf("%s%d", seed, suffix)
			lower := strings.ToLower(w)
			if _, used := excludedSet[lower]; used {
				continue
			}
			chosen = append(chosen, w)
			excludedSet[lower] = struct{}{}
		}
	}
	return chosen
}
