// =============================================================================
// FX Booking Transformer - XML Writer
// =============================================================================
//
// Renders the external records of a processing result as the booking
// document consumed by the booking system:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <Bookings event="Inception" generated="2024-03-28T18:00:00Z">
//     <Group externalDealId="D1" comment="C" navType="NAV1" typology="FX Swap">
//       <Booking n="1">
//         <id>...</id>
//         <externalDealId>D1</externalDealId>
//         ...
//       </Booking>
//     </Group>
//   </Bookings>
//
// Groups appear in the order their first record appears in the result.
// Booking fields follow the declaration order of the ExternalRecord shape
// and are read through the field accessors, so a field added to the shape
// shows up in the document without changes here.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Element names of the booking document.
const (
	RootElement    = "Bookings"
	GroupElement   = "Group"
	BookingElement = "Booking"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions controls the output format.
type GenerateOptions struct {
	// Indent is the indentation string. Default: two spaces.
	Indent string

	// IncludeXMLDeclaration adds the <?xml ...?> header. Default: true.
	IncludeXMLDeclaration bool

	// OmitEmpty leaves out fields whose value renders as empty text.
	OmitEmpty bool

	// IndexAttribute numbers bookings across the whole document.
	// Empty disables numbering. Default: "n".
	IndexAttribute string
}

// DefaultGenerateOptions returns the default options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		IndexAttribute:        "n",
	}
}

// Document identifies what a booking document was generated for.
type Document struct {
	Event     model.Event
	Generated time.Time
	Records   []*model.ExternalRecord
}

// =============================================================================
// XML STRUCTURE
// =============================================================================

// XMLElement is a generic element with attributes, text and children.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr   `xml:",attr"`
	Value      string       `xml:",chardata"`
	Children   []XMLElement `xml:",any"`
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// Generate renders doc with the default options.
func Generate(engine *mapper.Engine, doc Document) ([]byte, error) {
	return GenerateWithOptions(engine, doc, DefaultGenerateOptions())
}

// GenerateWithOptions renders doc. A nil engine uses mapper.Default.
func GenerateWithOptions(engine *mapper.Engine, doc Document, options GenerateOptions) ([]byte, error) {
	if engine == nil {
		engine = mapper.Default()
	}
	root, err := buildDocument(engine, doc, options)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	enc := xml.NewEncoder(&buffer)
	enc.Indent("", options.Indent)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}
	buffer.WriteByte('\n')

	return buffer.Bytes(), nil
}

func buildDocument(engine *mapper.Engine, doc Document, options GenerateOptions) (XMLElement, error) {
	root := XMLElement{
		XMLName: xml.Name{Local: RootElement},
		Attributes: []xml.Attr{
			attr("event", doc.Event.String()),
			attr("generated", doc.Generated.UTC().Format(time.RFC3339)),
		},
	}

	table, err := engine.Table(model.ExternalRecordShape)
	if err != nil {
		return root, err
	}

	groups := make(map[model.GroupKey]int)
	index := 1

	for _, rec := range doc.Records {
		key := rec.Key()
		at, ok := groups[key]
		if !ok {
			at = len(root.Children)
			groups[key] = at
			root.Children = append(root.Children, groupElement(key))
		}

		booking, err := bookingElement(table, rec, options, index)
		if err != nil {
			return root, err
		}
		root.Children[at].Children = append(root.Children[at].Children, booking)
		index++
	}

	return root, nil
}

func groupElement(key model.GroupKey) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: GroupElement},
		Attributes: []xml.Attr{
			attr("externalDealId", key.ExternalDealID),
			attr("comment", key.Comment),
			attr("navType", key.NavType),
			attr("typology", key.Typology.String()),
		},
	}
}

func bookingElement(table *accessor.Table, rec *model.ExternalRecord, options GenerateOptions, index int) (XMLElement, error) {
	element := XMLElement{XMLName: xml.Name{Local: BookingElement}}
	if options.IndexAttribute != "" {
		element.Attributes = []xml.Attr{attr(options.IndexAttribute, strconv.Itoa(index))}
	}

	for _, name := range table.Names() {
		field, _ := table.Field(name)
		value, err := table.Get(rec, name)
		if err != nil {
			return element, err
		}
		text := accessor.Format(field.Kind(), value)
		if text == "" && options.OmitEmpty {
			continue
		}
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: name},
			Value:   text,
		})
	}
	return element, nil
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}
