// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 store 提供基于 SQLite 的项目持久层与项目目录布局管理。

项目状态整体序列化为 JSON 快照存入单行，避免镜头/历史结构演进时的
繁琐迁移；行级列只保留查询用的 id、名称与时间戳。目录布局按
projects/<id>/{scripts,keyframes,clips,frames,exports} 固定组织。
*/
package store
