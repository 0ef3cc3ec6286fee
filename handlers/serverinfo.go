package handlers

import "net/http"

// ServerInfo implements GET /server-info (spec.md §4.F, §6).
func (s *Server) ServerInfo(w http.ResponseWriter, r *http.Request) {
	writePlist(w, http.StatusOK, map[string]interface{}{
		"features":       uint64(FeatureBits),
		"macAddress":     s.Info.MacAddress,
		"model":          s.Info.Model,
		"osBuildVersion": s.Info.OSBuildVersion,
		"protovers":      s.Info.ProtoVers,
		"srcvers":        s.Info.SrcVers,
		"vv":             uint64(s.Info.VV),
		"deviceid":       s.Info.DeviceID,
	})
}
