package handler

import (
	"fmt"

	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
)

// HandleQuit processes C_QUIT. Closing the session is enough: the input
// system's disconnect path detaches the observer and releases its terrain.
func HandleQuit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info(fmt.Sprintf("觀察者登出  session=%d  name=%s", sess.ID, sess.ClientName))
	sess.Close()
}
