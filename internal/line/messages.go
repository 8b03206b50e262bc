// Package line implements the LINE Messaging API surface: webhook intake and
// outbound reply/push delivery through the official SDK, with rendering of
// the dialogue's semantic messages into SDK message models.
package line

import (
	"fmt"
	"net/url"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/dialogue"
)

// render translates a semantic dialogue message into SDK messages.
func render(msg dialogue.Message) []messaging_api.MessageInterface {
	switch m := msg.(type) {
	case dialogue.TextPrompt:
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: m.Text},
		}

	case dialogue.RegionMenu:
		items := make([]messaging_api.QuickReplyItem, 0, len(m.Regions))
		for _, region := range m.Regions {
			items = append(items, messaging_api.QuickReplyItem{
				Action: &messaging_api.PostbackAction{
					Label:       region,
					Data:        url.Values{"region": {region}}.Encode(),
					DisplayText: region,
				},
			})
		}
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{
				Text:       m.Prompt,
				QuickReply: &messaging_api.QuickReply{Items: items},
			},
		}

	case dialogue.CategoryMenu:
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: m.Prompt},
		}

	case dialogue.RatingMenu:
		items := make([]messaging_api.QuickReplyItem, 0, 5)
		for star := 1; star <= 5; star++ {
			label := fmt.Sprintf("%d ⭐", star)
			items = append(items, messaging_api.QuickReplyItem{
				Action: &messaging_api.PostbackAction{
					Label: label,
					Data: url.Values{
						"rating": {fmt.Sprint(star)},
						"title":  {m.Title},
					}.Encode(),
					DisplayText: label,
				},
			})
		}
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{
				Text:       m.Prompt,
				QuickReply: &messaging_api.QuickReply{Items: items},
			},
		}

	case dialogue.VenueList:
		bubbles := make([]messaging_api.FlexBubble, 0, len(m.Venues))
		for _, venue := range m.Venues {
			bubbles = append(bubbles, venueBubble(venue))
		}
		return []messaging_api.MessageInterface{
			messaging_api.FlexMessage{
				AltText:  "資料庫查詢結果",
				Contents: &messaging_api.FlexCarousel{Contents: bubbles},
			},
		}

	case dialogue.WeatherReport:
		out := []messaging_api.MessageInterface{}
		if m.Report.Image != "" {
			out = append(out, messaging_api.ImageMessage{
				OriginalContentUrl: m.Report.Image,
				PreviewImageUrl:    m.Report.Image,
			})
		}
		out = append(out, messaging_api.TextMessage{
			Text: fmt.Sprintf("%s 現在天氣\n體感溫度：%s\n降雨機率：%s\n紫外線指數：%s\n空氣品質：%s",
				m.Region, m.Report.FeelsLike, m.Report.RainProbability,
				m.Report.UVIndex, m.Report.AirQuality),
		})
		return out

	case dialogue.SubmissionNotice:
		status := "已記錄"
		if !m.Matched {
			status = "查無此店家"
		}
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{
				Text: fmt.Sprintf("新評分：%s\n店家：%s\n星數：%d\n狀態：%s",
					m.UserID, m.Title, m.Rating, status),
			},
		}
	}

	return nil
}

// venueBubble builds one flex carousel bubble for a venue: hero image, title,
// phone, address, business hours, and a map-link button.
func venueBubble(venue database.Venue) messaging_api.FlexBubble {
	bubble := messaging_api.FlexBubble{
		Body: &messaging_api.FlexBox{
			Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexText{
					Text:   venue.Title,
					Weight: messaging_api.FlexTextWEIGHT_BOLD,
					Size:   "lg",
					Wrap:   true,
				},
				&messaging_api.FlexBox{
					Layout:  messaging_api.FlexBoxLAYOUT_VERTICAL,
					Margin:  "lg",
					Spacing: "sm",
					Contents: []messaging_api.FlexComponentInterface{
						&messaging_api.FlexText{Text: "電話：" + venue.Phone, Wrap: true},
						&messaging_api.FlexText{Text: "地址：" + venue.Address, Wrap: true},
						&messaging_api.FlexText{Text: "營業時間：" + venue.BusinessHours, Wrap: true},
						&messaging_api.FlexButton{
							Style:  messaging_api.FlexButtonSTYLE_LINK,
							Height: messaging_api.FlexButtonHEIGHT_SM,
							Action: &messaging_api.UriAction{
								Label: "查看地圖",
								Uri:   venue.MapLink,
							},
						},
					},
				},
			},
		},
	}

	if venue.ImageLink != "" {
		bubble.Hero = &messaging_api.FlexImage{
			Url:         venue.ImageLink,
			Size:        "full",
			AspectRatio: "16:9",
			AspectMode:  messaging_api.FlexImageASPECT_MODE_COVER,
		}
	}

	return bubble
}
