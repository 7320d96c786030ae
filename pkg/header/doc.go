// Package header implements typed access to SSDP header values.
//
// SSDP messages carry HTTP-style headers whose values are raw byte strings on
// the wire. A Registry maps a header name to a Codec that converts between the
// raw values and a typed Header. The message package looks codecs up by name
// at access time, so headers without a registered codec remain reachable
// through raw access.
//
// The Default registry knows the well-known SSDP and UPnP 1.1 headers:
//
//	MX, MAN, ST, NT, NTS, USN, LOCATION, SERVER, CACHE-CONTROL, HOST, EXT,
//	BOOTID.UPNP.ORG, CONFIGID.UPNP.ORG, SEARCHPORT.UPNP.ORG
//
// Custom headers are added with Register:
//
//	type FriendlyName string
//
//	func (FriendlyName) HeaderName() string { return "X-FRIENDLY-NAME" }
//
//	header.Default().Register("X-FRIENDLY-NAME", header.StringCodec[FriendlyName]())
package header
