package rx

// iBus frames are 32 bytes: two header bytes, 14 little-endian channels and
// a little-endian checksum of 0xFFFF minus every preceding byte.
const (
	ibusHeader1     = 0x20
	ibusHeader2     = 0x40
	ibusChannels    = 14
	ibusPayloadSize = ibusChannels * 2
	IBusFrameSize   = 2 + ibusPayloadSize + 2
)

type ibusState int

const (
	waitingForHeader1 ibusState = iota
	waitingForHeader2
	readingPayload
	readingChecksumLow
	readingChecksumHigh
)

// IBusParser decodes FlySky iBus frames.
type IBusParser struct {
	state    ibusState
	payload  [ibusPayloadSize]byte
	index    int
	checksum uint16
	rxLow    byte
	channels Channels
}

func NewIBusParser() *IBusParser {
	return &IBusParser{}
}

func (p *IBusParser) Feed(data byte) bool {
	switch p.state {
	case waitingForHeader1:
		if data == ibusHeader1 {
			p.state = waitingForHeader2
		}
	case waitingForHeader2:
		if data == ibusHeader2 {
			p.state = readingPayload
			p.index = 0
			p.checksum = 0xFFFF - ibusHeader1 - ibusHeader2
		} else {
			// not the expected header, resync
			p.state = waitingForHeader1
		}
	case readingPayload:
		p.payload[p.index] = data
		p.checksum -= uint16(data)
		p.index++
		if p.index == ibusPayloadSize {
			p.state = readingChecksumLow
		}
	case readingChecksumLow:
		p.rxLow = data
		p.state = readingChecksumHigh
	case readingChecksumHigh:
		p.state = waitingForHeader1
		received := uint16(p.rxLow) | uint16(data)<<8
		if received != p.checksum {
			return false
		}
		for i := 0; i < ibusChannels; i++ {
			p.channels[i] = uint16(p.payload[2*i]) | uint16(p.payload[2*i+1])<<8
		}
		return true
	}
	return false
}

func (p *IBusParser) Channels() Channels { return p.channels }

// EncodeIBus builds a frame for the first 14 channels.
func EncodeIBus(ch Channels) [IBusFrameSize]byte {
	var frame [IBusFrameSize]byte
	frame[0], frame[1] = ibusHeader1, ibusHeader2
	sum := uint16(0xFFFF) - ibusHeader1 - ibusHeader2
	for i := 0; i < ibusChannels; i++ {
		lo, hi := byte(ch[i]), byte(ch[i]>>8)
		frame[2+2*i], frame[3+2*i] = lo, hi
		sum -= uint16(lo) + uint16(hi)
	}
	frame[IBusFrameSize-2] = byte(sum)
	frame[IBusFrameSize-1] = byte(sum >> 8)
	return frame
}
