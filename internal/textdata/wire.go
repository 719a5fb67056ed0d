package textdata

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers. These are fixed; changing them breaks every existing
// corpus file.
const (
	recordSourceField    = 1
	recordNameField      = 2
	recordLanguagesField = 3
	recordSentencesField = 4

	sentenceTextField      = 1
	sentencePhonesField    = 2
	sentenceSemanticsField = 3

	semanticsValuesField = 1
)

// Marshal encodes the record in protobuf wire format.
func (r *Record) Marshal() []byte {
	var b []byte
	if r.Source != "" {
		b = protowire.AppendTag(b, recordSourceField, protowire.BytesType)
		b = protowire.AppendString(b, r.Source)
	}
	if r.Name != "" {
		b = protowire.AppendTag(b, recordNameField, protowire.BytesType)
		b = protowire.AppendString(b, r.Name)
	}
	for _, lang := range r.Languages {
		b = protowire.AppendTag(b, recordLanguagesField, protowire.BytesType)
		b = protowire.AppendString(b, lang)
	}
	for i := range r.Sentences {
		b = protowire.AppendTag(b, recordSentencesField, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Sentences[i].marshal())
	}
	return b
}

func (s *Sentence) marshal() []byte {
	var b []byte
	if s.Text != "" {
		b = protowire.AppendTag(b, sentenceTextField, protowire.BytesType)
		b = protowire.AppendString(b, s.Text)
	}
	for _, phone := range s.Phones {
		b = protowire.AppendTag(b, sentencePhonesField, protowire.BytesType)
		b = protowire.AppendString(b, phone)
	}
	for i := range s.Semantics {
		b = protowire.AppendTag(b, sentenceSemanticsField, protowire.BytesType)
		b = protowire.AppendBytes(b, s.Semantics[i].marshal())
	}
	return b
}

func (s *Semantics) marshal() []byte {
	if len(s.Values) == 0 {
		return nil
	}
	var packed []byte
	for _, v := range s.Values {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	var b []byte
	b = protowire.AppendTag(b, semanticsValuesField, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b
}

// Unmarshal decodes a record from protobuf wire format, replacing the
// receiver's contents. Unknown fields are skipped.
func (r *Record) Unmarshal(data []byte) error {
	*r = Record{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("record: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == recordSourceField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("record source: %w", protowire.ParseError(n))
			}
			r.Source = v
			data = data[n:]
		case num == recordNameField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("record name: %w", protowire.ParseError(n))
			}
			r.Name = v
			data = data[n:]
		case num == recordLanguagesField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("record languages: %w", protowire.ParseError(n))
			}
			r.Languages = append(r.Languages, v)
			data = data[n:]
		case num == recordSentencesField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("record sentences: %w", protowire.ParseError(n))
			}
			var sentence Sentence
			if err := sentence.unmarshal(v); err != nil {
				return err
			}
			r.Sentences = append(r.Sentences, sentence)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("record field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

func (s *Sentence) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("sentence: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == sentenceTextField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("sentence text: %w", protowire.ParseError(n))
			}
			s.Text = v
			data = data[n:]
		case num == sentencePhonesField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("sentence phones: %w", protowire.ParseError(n))
			}
			s.Phones = append(s.Phones, v)
			data = data[n:]
		case num == sentenceSemanticsField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("sentence semantics: %w", protowire.ParseError(n))
			}
			var sem Semantics
			if err := sem.unmarshal(v); err != nil {
				return err
			}
			s.Semantics = append(s.Semantics, sem)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("sentence field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

func (s *Semantics) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("semantics: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == semanticsValuesField && typ == protowire.BytesType:
			// Packed encoding.
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("semantics values: %w", protowire.ParseError(n))
			}
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return fmt.Errorf("semantics value: %w", protowire.ParseError(n))
				}
				s.Values = append(s.Values, int64(v))
				packed = packed[n:]
			}
			data = data[n:]
		case num == semanticsValuesField && typ == protowire.VarintType:
			// Unpacked encoding, accepted for compatibility.
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("semantics value: %w", protowire.ParseError(n))
			}
			s.Values = append(s.Values, int64(v))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("semantics field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
