// Package identity 维护当前会话的本地身份（登录用户或游客）
// 身份在会话建立时确定，组件只读消费，不提供任何修改入口
package identity

import "kama_gram_client/pkg/constants"

// Actor 当前会话的行为主体，登录用户与游客的带标签变体
// 零值不可用，必须经由 NewAuthenticated / NewGuest 构造
type Actor struct {
	id          string
	displayName string
	imageUrl    string
	guest       bool
}

// NewAuthenticated 构造已登录身份
func NewAuthenticated(id, displayName, imageUrl string) Actor {
	return Actor{
		id:          id,
		displayName: displayName,
		imageUrl:    imageUrl,
	}
}

// NewGuest 构造游客身份
// 游客没有持久化的服务端身份，id 恒为空，不能作为参与者关联键使用
func NewGuest() Actor {
	return Actor{guest: true}
}

// Id 返回持久身份标识，游客返回空串
func (a Actor) Id() string {
	return a.id
}

// DisplayName 返回会话里展示的本名（游客为空）
func (a Actor) DisplayName() string {
	return a.displayName
}

// ImageUrl 返回头像地址
func (a Actor) ImageUrl() string {
	return a.imageUrl
}

// IsGuest 判断是否为游客身份
func (a Actor) IsGuest() bool {
	return a.guest
}

// SenderLabel 返回该身份发出消息时使用的发送者显示名
// 游客统一显示为 Anonymous，不暴露任何本地选择的昵称
func (a Actor) SenderLabel() string {
	if a.guest {
		return constants.ANONYMOUS_NAME
	}
	return a.displayName
}

// Session 进程级会话身份持有者
// 身份在进程启动时确定一次，运行期间不变；各组件从这里取得只读的 Actor
type Session struct {
	actor Actor
}

// NewSession 以给定身份建立会话
func NewSession(actor Actor) *Session {
	return &Session{actor: actor}
}

// Actor 返回当前会话的身份
func (s *Session) Actor() Actor {
	return s.actor
}
