package agent

import (
	"fmt"
	"sort"

	"github.com/jomei/notionapi"
)

const TITLE_PROPERTY_KEY = "title"

// BuildContent converts an agent payload body into Notion page properties
// and content blocks. A string body becomes a single paragraph block, a
// mapping becomes one property per key with the "title" key mapped to the
// page title.
func BuildContent(body interface{}) (notionapi.Properties, []notionapi.Block, error) {
	switch value := body.(type) {
	case string:
		return notionapi.Properties{}, []notionapi.Block{paragraphBlock(value)}, nil
	case map[string]interface{}:
		properties := notionapi.Properties{}
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			text := fmt.Sprint(value[key])
			if key == TITLE_PROPERTY_KEY {
				properties[key] = &notionapi.TitleProperty{
					Title: richText(text),
				}
				continue
			}
			properties[key] = &notionapi.RichTextProperty{
				RichText: richText(text),
			}
		}
		return properties, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported body type: %T", body)
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func paragraphBlock(content string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: richText(content),
		},
	}
}
