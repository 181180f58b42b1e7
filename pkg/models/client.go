package models

// ClientRecord describes one wireless client observed by the WLC.
// MACAddress is always uppercase colon-hex; it is the natural key used to
// cross-reference clients across sources. Fields the controller did not
// report are present as empty strings, never omitted.
type ClientRecord struct {
	MACAddress     string `json:"mac_address"`
	IPAddress      string `json:"ip_address"`
	APName         string `json:"ap_name"`
	APMACAddress   string `json:"ap_mac_address"`
	Hostname       string `json:"hostname"`
	DeviceType     string `json:"device_type"`
	ClientState    string `json:"client_state"`
	SSID           string `json:"ssid"`
	ConnectedFor   string `json:"connected_for"`
	Username       string `json:"username"`
	Netmask        string `json:"netmask"`
	GatewayAddress string `json:"gateway_address"`
}

// DhcpClient is one lease reported by the router's DHCP client page.
// Unlike ClientRecord it carries only the address pair.
type DhcpClient struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

// MacTableEntry is one dynamic entry learned by a switch: a MAC address
// seen on an interface in a VLAN. MACAddress is uppercase colon-hex.
type MacTableEntry struct {
	MACAddress string `json:"mac_address"`
	Device     string `json:"device"`
	Interface  string `json:"interface"`
	VLAN       string `json:"vlan"`
}

// VendorEntry maps an IEEE vendor block prefix to a vendor name.
// Prefix is uppercase colon-hex of length 8, 10, or 13 characters
// (MA-L, MA-M, MA-S respectively).
type VendorEntry struct {
	Prefix     string `json:"macPrefix"`
	VendorName string `json:"vendorName"`
	BlockType  string `json:"blockType,omitempty"`
	Private    bool   `json:"private,omitempty"`
	LastUpdate string `json:"lastUpdate,omitempty"`
}
