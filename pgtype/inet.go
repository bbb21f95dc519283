package pgtype

import (
	"fmt"
	"net"
)

// Network address family constants from the server's socket.h. All known
// platforms use the same values.
const (
	defaultAFInet  = 2
	defaultAFInet6 = 3
)

// InetCodec handles inet and cidr. Values decode to *net.IPNet; host
// addresses carry a full-length mask.
type InetCodec struct{}

func (InetCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (InetCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (InetCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var ipnet *net.IPNet
	switch value := value.(type) {
	case *net.IPNet:
		ipnet = value
	case net.IP:
		ipnet = &net.IPNet{IP: value, Mask: net.CIDRMask(len(value)*8, len(value)*8)}
	case string:
		ip, parsed, err := net.ParseCIDR(value)
		if err != nil {
			ip = net.ParseIP(value)
			if ip == nil {
				return nil, fmt.Errorf("cannot parse %q as inet", value)
			}
			if v4 := ip.To4(); v4 != nil {
				ip = v4
			}
			parsed = &net.IPNet{IP: ip, Mask: net.CIDRMask(len(ip)*8, len(ip)*8)}
		} else {
			parsed.IP = ip
		}
		ipnet = parsed
	default:
		return nil, fmt.Errorf("cannot encode %T as inet", value)
	}

	ip := ipnet.IP
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	ones, _ := ipnet.Mask.Size()

	switch format {
	case BinaryFormatCode:
		var family byte
		switch len(ip) {
		case net.IPv4len:
			family = defaultAFInet
		case net.IPv6len:
			family = defaultAFInet6
		default:
			return nil, fmt.Errorf("invalid IP length: %d", len(ip))
		}

		buf = append(buf, family)
		buf = append(buf, byte(ones))
		var isCIDR byte
		if oid == CIDROID {
			isCIDR = 1
		}
		buf = append(buf, isCIDR)
		buf = append(buf, byte(len(ip)))
		return append(buf, ip...), nil
	case TextFormatCode:
		if ones == len(ip)*8 && oid != CIDROID {
			return append(buf, ip.String()...), nil
		}
		return append(buf, ipnet.String()...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (InetCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) < 4 {
			return nil, fmt.Errorf("invalid length for inet: %d", len(src))
		}

		bits := src[1]
		addressLength := src[3]
		if len(src) != 4+int(addressLength) {
			return nil, fmt.Errorf("invalid length for inet: %d", len(src))
		}

		var ipnet net.IPNet
		ipnet.IP = make(net.IP, int(addressLength))
		copy(ipnet.IP, src[4:])
		if ipv4 := ipnet.IP.To4(); ipv4 != nil {
			ipnet.IP = ipv4
		}
		ipnet.Mask = net.CIDRMask(int(bits), len(ipnet.IP)*8)
		return &ipnet, nil
	case TextFormatCode:
		s := string(src)
		ip, ipnet, err := net.ParseCIDR(s)
		if err == nil {
			if ipv4 := ip.To4(); ipv4 != nil {
				ip = ipv4
			}
			ipnet.IP = ip
			return ipnet, nil
		}

		ip = net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("cannot parse %q as inet", s)
		}
		if ipv4 := ip.To4(); ipv4 != nil {
			ip = ipv4
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(len(ip)*8, len(ip)*8)}, nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

// MacaddrCodec decodes to net.HardwareAddr.
type MacaddrCodec struct{}

func (MacaddrCodec) FormatSupported(format int16) bool {
	return format == TextFormatCode || format == BinaryFormatCode
}

func (MacaddrCodec) PreferredFormat() int16 {
	return BinaryFormatCode
}

func (MacaddrCodec) Encode(m *Map, oid uint32, format int16, value interface{}, buf []byte) ([]byte, error) {
	var addr net.HardwareAddr
	switch value := value.(type) {
	case net.HardwareAddr:
		addr = value
	case string:
		var err error
		addr, err = net.ParseMAC(value)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot encode %T as macaddr", value)
	}

	switch format {
	case BinaryFormatCode:
		if len(addr) != 6 {
			return nil, fmt.Errorf("invalid length for macaddr: %d", len(addr))
		}
		return append(buf, addr...), nil
	case TextFormatCode:
		return append(buf, addr.String()...), nil
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}

func (MacaddrCodec) DecodeValue(m *Map, oid uint32, format int16, src []byte) (interface{}, error) {
	switch format {
	case BinaryFormatCode:
		if len(src) != 6 {
			return nil, fmt.Errorf("invalid length for macaddr: %d", len(src))
		}
		addr := make(net.HardwareAddr, 6)
		copy(addr, src)
		return addr, nil
	case TextFormatCode:
		return net.ParseMAC(string(src))
	}
	return nil, fmt.Errorf("unknown format code %d", format)
}
