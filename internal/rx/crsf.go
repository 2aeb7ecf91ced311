package rx

// CRSF (Crossfire / ExpressLRS) RC channel frames: sync, length, type,
// 22 bytes of 16 packed 11-bit channels, CRC8 (DVB-S2) over type+payload.
const (
	crsfSyncByte            = 0xC8
	crsfFrameTypeRCChannels = 0x16
	crsfPayloadSize         = 22
	CRSFFrameSize           = 1 + 1 + 1 + crsfPayloadSize + 1

	CRSFChannelValueMin = 172  // 987us
	CRSFChannelValueMax = 1811 // 2012us
	crsfChannelCentre   = 992
)

type crsfState int

const (
	crsfDestination crsfState = iota
	crsfLength
	crsfType
	crsfPayload
	crsfChecksum
)

// CRSFParser decodes CRSF RC channel frames. Other frame types are skipped.
type CRSFParser struct {
	state    crsfState
	length   byte
	frame    [CRSFFrameSize]byte
	index    int
	channels Channels
}

func NewCRSFParser() *CRSFParser {
	return &CRSFParser{}
}

func (p *CRSFParser) reset() {
	p.state = crsfDestination
	p.index = 0
}

func (p *CRSFParser) Feed(b byte) bool {
	switch p.state {
	case crsfDestination:
		if b == crsfSyncByte {
			p.frame[0] = b
			p.index = 1
			p.state = crsfLength
		}
	case crsfLength:
		// length counts type, payload and crc
		if b != crsfPayloadSize+2 {
			p.reset()
			return false
		}
		p.length = b
		p.frame[p.index] = b
		p.index++
		p.state = crsfType
	case crsfType:
		if b != crsfFrameTypeRCChannels {
			p.reset()
			return false
		}
		p.frame[p.index] = b
		p.index++
		p.state = crsfPayload
	case crsfPayload:
		p.frame[p.index] = b
		p.index++
		if p.index >= int(p.length)+1 {
			p.state = crsfChecksum
		}
	case crsfChecksum:
		p.frame[p.index] = b
		ok := crc8(p.frame[2:p.index]) == b
		if ok {
			p.channels = unpackCRSF(p.frame[3 : 3+crsfPayloadSize])
		}
		p.reset()
		return ok
	}
	return false
}

func (p *CRSFParser) Channels() Channels { return p.channels }

// unpackCRSF unpacks the 11-bit channel values and converts them to
// microseconds.
func unpackCRSF(bitstream []byte) Channels {
	var out Channels
	var bitsMerged uint
	var readValue uint32
	var readByteIndex int

	for n := 0; n < NumChannels; n++ {
		for bitsMerged < 11 {
			if readByteIndex >= len(bitstream) {
				return out
			}
			readValue |= uint32(bitstream[readByteIndex]) << bitsMerged
			readByteIndex++
			bitsMerged += 8
		}
		out[n] = crsfToUS(uint16(readValue & 0x07FF))
		readValue >>= 11
		bitsMerged -= 11
	}
	return out
}

// crsfToUS converts a raw CRSF value, 992 being centre, to microseconds.
func crsfToUS(v uint16) uint16 {
	return uint16((int(v)-crsfChannelCentre)*5/8 + NeutralRxValue)
}

// usToCRSF is the inverse of crsfToUS.
func usToCRSF(us uint16) uint16 {
	return uint16((int(us)-NeutralRxValue)*8/5 + crsfChannelCentre)
}

// EncodeCRSF packs channel values in microseconds into an RC channels frame.
func EncodeCRSF(ch Channels) [CRSFFrameSize]byte {
	var frame [CRSFFrameSize]byte
	frame[0] = crsfSyncByte
	frame[1] = crsfPayloadSize + 2
	frame[2] = crsfFrameTypeRCChannels

	var acc uint32
	var bits uint
	idx := 3
	for n := 0; n < NumChannels; n++ {
		acc |= uint32(usToCRSF(ch[n])&0x07FF) << bits
		bits += 11
		for bits >= 8 {
			frame[idx] = byte(acc)
			idx++
			acc >>= 8
			bits -= 8
		}
	}
	frame[CRSFFrameSize-1] = crc8(frame[2 : CRSFFrameSize-1])
	return frame
}

// crc8 computes the CRSF CRC8 (DVB-S2, polynomial 0xD5).
func crc8(data []byte) byte {
	crc := byte(0x00)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0xD5
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
