// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存能力。

Manager 封装 go-redis 客户端的连接生命周期，提供字符串与 JSON 两种
模式的读写，并以 ErrCacheMiss 哨兵错误表达未命中。ScriptCache 在其上
实现脚本结果的旁路缓存：同一产品简介的重复生成直接命中，缓存故障
一律静默放行到后端，从不影响生成链路。
*/
package cache
