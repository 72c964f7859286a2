package face

import "github.com/ndn-go/ndnkit/ndn"

var (
	_ ndn.Face = (*StreamFace)(nil)
	_ ndn.Face = (*WebSocketFace)(nil)
	_ ndn.Face = (*DummyFace)(nil)
)
