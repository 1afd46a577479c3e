package classifier

import (
	"fmt"
	"strings"

	"expatgram/pkg/models"
)

// promptTemplate is the classification instruction handed to the model.
// The %s verbs are, in order: region, the four identity field keys, the
// rewritten-text key, caption text.
const promptTemplate = `You curate an information feed for Japanese speakers living in or moving to %s.
Classify the Instagram post below into exactly one category. When a post could
fit more than one, pick the highest in this order:

1. "Job" - job openings, hiring notices, recruitment. Signals: hiring, staff
   wanted, apply now, 求人, 募集, スタッフ募集, アルバイト.
2. "House" - housing offers: rooms, apartments, sublets, roommates. Signals:
   for rent, room available, lease takeover, 賃貸, ルームメイト募集, 入居者募集.
3. "Event" - a specific gathering with a date or venue: meetups, markets,
   workshops, concerts. Signals: join us, tickets, 開催, イベント, 交流会.
4. "Ignore" - everything else.

Do NOT stretch a category. A photo of food is not an Event. A picture of a
nice apartment with no offer to rent it is not a House post. Lifestyle posts,
travel diaries, and ads for products are all "Ignore".

Respond with JSON only, no prose and no code fences, in this shape:

{
  "category": "Job",
  "data": {
    "%s": "",
    "%s": "",
    "%s": "",
    "%s": "",
    "%s": "rewrite of the post in polite Japanese, 150 characters or fewer"
  }
}

Add to "data" the fields for the category you chose, extracted from the post:

Job:    "job_title", "job_description_summary" (100 characters or fewer),
        "shop_name", "location", "apply_method"
House:  "rent_price" (number, monthly rent), "area", "nearest_station",
        "room_type", "move_in_date"
Event:  "event_name", "event_date", "event_place"
Ignore: no extra fields.

Leave string fields you cannot determine as empty strings and "rent_price"
as null. Use the attached image as additional evidence when one is provided.

Post caption:
%s`

// BuildPrompt renders the classification prompt for one candidate post.
func BuildPrompt(post models.CandidatePost, region string) string {
	caption := strings.TrimSpace(post.Text)
	if caption == "" {
		caption = "(no caption)"
	}
	return fmt.Sprintf(promptTemplate,
		region,
		models.FieldShortcode,
		models.FieldOriginalURL,
		models.FieldPostedAt,
		models.FieldAuthor,
		models.FieldRewrittenText,
		caption,
	)
}
